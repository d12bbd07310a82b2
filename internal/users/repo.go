package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shokujin-wiki/shokujin-api/internal/repo"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Profile is a user row joined with the email of its identity.
type Profile struct {
	models.User
	Email *string `gorm:"column:email"`
}

// FindByID loads a user by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByAuthID loads the user linked to an identity.
func (r *Repository) FindByAuthID(ctx context.Context, authID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "auth_id = ?", authID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// HasUser reports whether the users row id still belongs to authID.
func (r *Repository) HasUser(ctx context.Context, id int64, authID uuid.UUID) (bool, error) {
	return r.Exists(ctx, &models.User{}, "id = ? AND auth_id = ?", id, authID)
}

// FindProfile loads a user together with the identity email.
func (r *Repository) FindProfile(ctx context.Context, id int64) (*Profile, error) {
	var profile Profile
	err := r.DB(ctx).
		Table("users").
		Select("users.*, auth_identities.email AS email").
		Joins("LEFT JOIN auth_identities ON auth_identities.auth_id = users.auth_id").
		Where("users.id = ?", id).
		Take(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert inserts the user for authID unless one exists and returns the stored row.
func (r *Repository) Upsert(ctx context.Context, authID uuid.UUID) (*models.User, error) {
	user := &models.User{AuthID: authID}
	err := r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "auth_id"}}, DoNothing: true}).
		Create(user).Error
	if err != nil {
		return nil, err
	}
	return r.FindByAuthID(ctx, authID)
}

// UpdateName sets or clears the display name. It reports gorm.ErrRecordNotFound
// when no row matched.
func (r *Repository) UpdateName(ctx context.Context, id int64, name *string) error {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
