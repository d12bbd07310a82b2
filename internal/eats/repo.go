package eats

import (
	"context"

	"gorm.io/gorm"

	"github.com/shokujin-wiki/shokujin-api/internal/repo"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// Repository persists eats and their option links.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, eat *models.Eat) error {
	return r.DB(ctx).Create(eat).Error
}

// LinkOptions inserts eat_options rows.
func (r *Repository) LinkOptions(ctx context.Context, links []models.EatOption) error {
	if len(links) == 0 {
		return nil
	}
	return r.DB(ctx).Create(&links).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Eat, error) {
	var eat models.Eat
	if err := r.DB(ctx).First(&eat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &eat, nil
}

// List returns one page of eats, newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Eat, int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Eat{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	rows := []models.Eat{}
	if err := repo.Page(r.DB(ctx).Order(repo.NewestFirst), params).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// OptionsFor groups the option links of eatIDs by eat, ordered by name.
func (r *Repository) OptionsFor(ctx context.Context, eatIDs []int64) (map[int64][]models.EatOption, error) {
	grouped := make(map[int64][]models.EatOption, len(eatIDs))
	if len(eatIDs) == 0 {
		return grouped, nil
	}
	links := []models.EatOption{}
	err := r.DB(ctx).
		Where("eat_id IN ?", eatIDs).
		Order("option_name_snapshot ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		grouped[link.EatID] = append(grouped[link.EatID], link)
	}
	return grouped, nil
}
