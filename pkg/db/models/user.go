package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the application profile linked to a signed in identity.
type User struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AuthID    uuid.UUID `gorm:"column:auth_id;type:uuid;not null;uniqueIndex"`
	Name      *string   `gorm:"column:name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// AuthIdentity holds sign in credentials. AuthID is the stable identifier
// copied into users.auth_id.
type AuthIdentity struct {
	AuthID       uuid.UUID  `gorm:"column:auth_id;type:uuid;primaryKey"`
	Email        string     `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (AuthIdentity) TableName() string { return "auth_identities" }
