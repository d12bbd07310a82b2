package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shokujin-wiki/shokujin-api/internal/repo"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
)

// IdentityRepository persists sign in credentials.
type IdentityRepository struct {
	repo.Base
}

// NewIdentityRepository binds the identity repository to db.
func NewIdentityRepository(db *gorm.DB) *IdentityRepository {
	return &IdentityRepository{Base: repo.NewBase(db)}
}

// FindByEmail looks an identity up by email, ignoring case.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*models.AuthIdentity, error) {
	var identity models.AuthIdentity
	err := r.DB(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&identity).Error
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// Create stores a new identity with a freshly generated auth id.
func (r *IdentityRepository) Create(ctx context.Context, email, passwordHash string) (*models.AuthIdentity, error) {
	identity := &models.AuthIdentity{
		AuthID:       uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
	}
	if err := r.DB(ctx).Create(identity).Error; err != nil {
		return nil, err
	}
	return identity, nil
}

// RecordLogin stamps last_login_at and, when rehash is non-empty, replaces the stored hash.
func (r *IdentityRepository) RecordLogin(ctx context.Context, authID uuid.UUID, at time.Time, rehash string) error {
	updates := map[string]any{"last_login_at": at}
	if rehash != "" {
		updates["password_hash"] = rehash
	}
	return r.DB(ctx).
		Model(&models.AuthIdentity{}).
		Where("auth_id = ?", authID).
		UpdateColumns(updates).Error
}
