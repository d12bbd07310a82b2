package articles

import (
	"context"

	"gorm.io/gorm"

	"github.com/shokujin-wiki/shokujin-api/internal/repo"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// Repository persists articles and their product links. Bind it to the
// transaction handle inside db.WithTx for multi step writes.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListRow is an article with the aggregates shown on the article list.
type ListRow struct {
	models.Article
	ProductCount    int64   `gorm:"column:product_count"`
	MainProductID   *int64  `gorm:"column:main_product_id"`
	MainProductName *string `gorm:"column:main_product_name"`
}

// RelatedRow is a related product with its review count.
type RelatedRow struct {
	models.Product
	ReviewCount int64 `gorm:"column:review_count"`
}

const listSelect = `articles.*,
(SELECT COUNT(*) FROM article_products ap WHERE ap.article_id = articles.id) AS product_count,
(SELECT p.id FROM products p WHERE p.main_article_id = articles.id ORDER BY p.id LIMIT 1) AS main_product_id,
(SELECT p.name FROM products p WHERE p.main_article_id = articles.id ORDER BY p.id LIMIT 1) AS main_product_name`

// SlugExists reports whether any article, published or not, uses slug.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.Exists(ctx, &models.Article{}, "slug = ?", slug)
}

func (r *Repository) Create(ctx context.Context, article *models.Article) error {
	return r.DB(ctx).Create(article).Error
}

// FindBySlug loads an article. With publishedOnly drafts are treated as missing.
func (r *Repository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Article, error) {
	query := r.DB(ctx).Where("slug = ?", slug)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	var article models.Article
	if err := query.First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *Repository) Update(ctx context.Context, id int64, fields map[string]any) error {
	res := r.DB(ctx).Model(&models.Article{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetMainProduct points productID at the article. It reports
// gorm.ErrRecordNotFound when the product does not exist.
func (r *Repository) SetMainProduct(ctx context.Context, articleID, productID int64) error {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("main_article_id", articleID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClearMainProduct detaches every product whose main article is articleID.
func (r *Repository) ClearMainProduct(ctx context.Context, articleID int64) error {
	return r.DB(ctx).
		Model(&models.Product{}).
		Where("main_article_id = ?", articleID).
		UpdateColumn("main_article_id", nil).Error
}

// InsertRelated adds one article_products row per product id.
func (r *Repository) InsertRelated(ctx context.Context, articleID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	links := make([]models.ArticleProduct, 0, len(productIDs))
	for _, id := range productIDs {
		links = append(links, models.ArticleProduct{ArticleID: articleID, ProductID: id})
	}
	return r.DB(ctx).Create(&links).Error
}

func (r *Repository) DeleteRelated(ctx context.Context, articleID int64) error {
	return r.DB(ctx).Where("article_id = ?", articleID).Delete(&models.ArticleProduct{}).Error
}

// MainProduct returns the product whose main article is articleID, or nil.
func (r *Repository) MainProduct(ctx context.Context, articleID int64) (*models.Product, error) {
	var products []models.Product
	if err := r.DB(ctx).Where("main_article_id = ?", articleID).Order("id ASC").Limit(1).Find(&products).Error; err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

// RelatedProductIDs returns the linked product ids in ascending order.
func (r *Repository) RelatedProductIDs(ctx context.Context, articleID int64) ([]int64, error) {
	ids := []int64{}
	err := r.DB(ctx).
		Model(&models.ArticleProduct{}).
		Where("article_id = ?", articleID).
		Order("product_id ASC").
		Pluck("product_id", &ids).Error
	return ids, err
}

// RelatedProducts returns the linked products except excludeID, by name.
func (r *Repository) RelatedProducts(ctx context.Context, articleID int64, excludeID *int64) ([]RelatedRow, error) {
	query := r.DB(ctx).
		Table("products").
		Select("products.*, (SELECT COUNT(*) FROM reviews WHERE reviews.product_id = products.id) AS review_count").
		Joins("JOIN article_products ON article_products.product_id = products.id").
		Where("article_products.article_id = ?", articleID).
		Order("products.name ASC")
	if excludeID != nil {
		query = query.Where("products.id <> ?", *excludeID)
	}
	rows := []RelatedRow{}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPublished returns one page of published articles, newest first.
func (r *Repository) ListPublished(ctx context.Context, params pagination.Params) ([]ListRow, int64, error) {
	var total int64
	if err := r.DB(ctx).Model(&models.Article{}).Where("is_published = ?", true).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := []ListRow{}
	query := r.DB(ctx).
		Table("articles").
		Select(listSelect).
		Where("articles.is_published = ?", true).
		Order("articles.created_at DESC, articles.id DESC")
	if err := repo.Page(query, params).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
