package reviews

import (
	"context"

	"gorm.io/gorm"

	"github.com/shokujin-wiki/shokujin-api/internal/repo"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// Repository persists reviews.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Row is a review joined with its product and author names.
type Row struct {
	models.Review
	ProductName string  `gorm:"column:product_name"`
	UserName    *string `gorm:"column:user_name"`
}

const rowSelect = "reviews.*, products.name AS product_name, users.name AS user_name"

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.DB(ctx).Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Review, error) {
	var review models.Review
	if err := r.DB(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FindRow loads one review with product and author names.
func (r *Repository) FindRow(ctx context.Context, id int64) (*Row, error) {
	var row Row
	if err := r.joined(ctx).Where("reviews.id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateOwned rewrites product, comment and images of a review owned by
// userID. It reports gorm.ErrRecordNotFound when no owned row matched.
func (r *Repository) UpdateOwned(ctx context.Context, id, userID, productID int64, comment string, images []string) error {
	res := r.DB(ctx).
		Model(&models.Review{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"product_id": productID,
			"comment":    comment,
			"image_urls": toArray(images),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of all reviews, newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]Row, int64, error) {
	return r.page(ctx, nil, params)
}

// ListByProduct returns one page of the reviews of productID, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID int64, params pagination.Params) ([]Row, int64, error) {
	return r.page(ctx, &productID, params)
}

// Latest returns the newest limit reviews of productID.
func (r *Repository) Latest(ctx context.Context, productID int64, limit int) ([]Row, error) {
	rows := []Row{}
	err := r.joined(ctx).
		Where("reviews.product_id = ?", productID).
		Order("reviews.created_at DESC, reviews.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) page(ctx context.Context, productID *int64, params pagination.Params) ([]Row, int64, error) {
	count := r.DB(ctx).Model(&models.Review{})
	if productID != nil {
		count = count.Where("product_id = ?", *productID)
	}
	var total int64
	if err := count.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.joined(ctx).Order("reviews.created_at DESC, reviews.id DESC")
	if productID != nil {
		query = query.Where("reviews.product_id = ?", *productID)
	}
	rows := []Row{}
	if err := repo.Page(query, params).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.DB(ctx).
		Table("reviews").
		Select(rowSelect).
		Joins("JOIN products ON products.id = reviews.product_id").
		Joins("LEFT JOIN users ON users.id = reviews.user_id")
}
