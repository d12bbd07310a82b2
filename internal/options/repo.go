package options

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shokujin-wiki/shokujin-api/internal/repo"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
)

// Repository persists eat options (toppings, sizes and the like).
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Upsert returns the option named name, creating an unverified one owned by
// userID when it does not exist yet.
func (r *Repository) Upsert(ctx context.Context, name string, userID int64) (*models.Option, error) {
	option := &models.Option{Name: name, IsVerified: false, CreatedBy: &userID}
	err := r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(option).Error
	if err != nil {
		return nil, err
	}

	var stored models.Option
	if err := r.DB(ctx).First(&stored, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// Search matches names containing q, ignoring case, ordered by name.
func (r *Repository) Search(ctx context.Context, q string, limit int) ([]models.Option, error) {
	options := []models.Option{}
	query := r.DB(ctx).Order("name ASC").Limit(limit)
	if q = strings.TrimSpace(q); q != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?) ESCAPE '\\'", "%"+escapeLike(q)+"%")
	}
	if err := query.Find(&options).Error; err != nil {
		return nil, err
	}
	return options, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
