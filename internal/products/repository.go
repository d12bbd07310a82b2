package product

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shokujin-wiki/shokujin-api/internal/repo"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// imageFilter matches reviews that carry at least one image. The literal
// compares as text[] on Postgres and as text on sqlite.
const imageFilter = "image_urls <> '{}'"

// Repository persists products and answers the product read paths.
type Repository struct {
	repo.Base
}

// NewRepository binds the product repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Summary is a product row with its review count.
type Summary struct {
	models.Product
	ReviewCount int64 `gorm:"column:review_count"`
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByName looks a product up by exact name.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindOrCreateByName returns the product called name, inserting an
// unverified one owned by userID when none exists. A concurrent insert of the
// same name resolves to the row that won.
func (r *Repository) FindOrCreateByName(ctx context.Context, name string, userID int64) (*models.Product, error) {
	product := &models.Product{Name: name, Price: decimal.Zero, IsVerified: false, UserID: &userID}
	err := r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(product).Error
	if err != nil {
		return nil, err
	}
	return r.FindByName(ctx, name)
}

// FindByIDs returns the products with the given ids ordered by name.
func (r *Repository) FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.DB(ctx).Where("id IN ?", ids).Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Update applies name, price and updated_by to the product. It reports
// gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	res := r.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page of products, newest first, with review counts.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]Summary, int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []Summary{}
	query := r.DB(ctx).
		Table("products").
		Select("products.*, (SELECT COUNT(*) FROM reviews WHERE reviews.product_id = products.id) AS review_count").
		Order("products.created_at DESC, products.id DESC")
	if err := repo.Page(query, params).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Search matches names containing q, ignoring case, ordered by name.
func (r *Repository) Search(ctx context.Context, q string, limit int) ([]models.Product, error) {
	products := []models.Product{}
	pattern := "%" + escapeLike(strings.TrimSpace(q)) + "%"
	err := r.DB(ctx).
		Where("LOWER(name) LIKE LOWER(?) ESCAPE '\\'", pattern).
		Order("name ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) CountReviews(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Review{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

// LatestImage returns the first image of the newest review of productID
// that has one.
func (r *Repository) LatestImage(ctx context.Context, productID int64) (*string, error) {
	images, err := r.LatestImages(ctx, []int64{productID})
	if err != nil {
		return nil, err
	}
	if url, ok := images[productID]; ok {
		return &url, nil
	}
	return nil, nil
}

// latestImageIDs picks, per requested product, the id of its newest review
// with an image. Each product costs one indexed LIMIT 1 lookup regardless of
// how many reviews it has.
const latestImageIDs = `SELECT (
	SELECT latest.id FROM reviews AS latest
	WHERE latest.product_id = products.id AND latest.` + imageFilter + `
	ORDER BY latest.created_at DESC, latest.id DESC
	LIMIT 1
) FROM products WHERE products.id IN ?`

// LatestImages is LatestImage for several products at once. Products
// without any image are absent from the result.
func (r *Repository) LatestImages(ctx context.Context, productIDs []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var reviews []models.Review
	err := r.DB(ctx).
		Select("id", "product_id", "image_urls").
		Where("id IN ("+latestImageIDs+")", productIDs).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	for _, review := range reviews {
		if url := review.FirstImage(); url != nil {
			out[review.ProductID] = *url
		}
	}
	return out, nil
}

// ArticleSlug returns the slug of the article with the given id.
func (r *Repository) ArticleSlug(ctx context.Context, articleID int64) (string, error) {
	var article models.Article
	if err := r.DB(ctx).Select("id", "slug").First(&article, "id = ?", articleID).Error; err != nil {
		return "", err
	}
	return article.Slug, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
