package articles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	productsvc "github.com/shokujin-wiki/shokujin-api/internal/products"
	"github.com/shokujin-wiki/shokujin-api/internal/reviews"
	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/metrics"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
	"github.com/shokujin-wiki/shokujin-api/pkg/slug"
)

const (
	DefaultListLimit  = 20
	DetailReviewLimit = 50

	msgTitleRequired   = "タイトルを入力してください"
	msgContentRequired = "本文を入力してください"
	msgSlugRequired    = "URLパスを入力してください"
	msgSlugInvalid     = "URLパスは英小文字、数字、ハイフンのみ使用できます"
	msgSlugTaken       = "このURLパスはすでに使用されています"
	msgMainInRelated   = "メイン商品は関連商品に含めることができません"
	msgProductMissing  = "指定された商品が存在しません"
	msgDuplicate       = "この記事はすでに登録されています"
	msgNotFound        = "記事が見つかりません"
	msgCreateFailed    = "記事の作成に失敗しました"
	msgUpdateFailed    = "記事の更新に失敗しました"
	msgValidation      = "入力内容に誤りがあります"
)

// Service manages wiki articles.
type Service interface {
	CreateArticle(ctx context.Context, userID int64, input ArticleInput) (*ArticleDTO, error)
	UpdateArticle(ctx context.Context, userID int64, currentSlug string, input ArticleInput) (*ArticleDTO, error)
	ListArticles(ctx context.Context, params pagination.Params) (*ListResult, error)
	GetArticle(ctx context.Context, slug string) (*Detail, error)
	GetEditForm(ctx context.Context, slug string) (*EditForm, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type imageLookup interface {
	LatestImages(ctx context.Context, productIDs []int64) (map[int64]string, error)
	CountReviews(ctx context.Context, productID int64) (int64, error)
}

type reviewLookup interface {
	Latest(ctx context.Context, productID int64, limit int) ([]reviews.Row, error)
}

// ServiceParams bundles the article service dependencies.
type ServiceParams struct {
	DB       txRunner
	Repo     *Repository
	Products imageLookup
	Reviews  reviewLookup
	Metrics  *metrics.ContentMetrics
}

type service struct {
	db       txRunner
	repo     *Repository
	products imageLookup
	reviews  reviewLookup
	metrics  *metrics.ContentMetrics
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("article repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Reviews == nil {
		return nil, fmt.Errorf("review repository required")
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		products: params.Products,
		reviews:  params.Reviews,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

type normalizedInput struct {
	title     string
	slug      string
	content   string
	published bool
	mainID    *int64
	related   []int64
}

// CreateArticle inserts the article, points the main product at it and links
// the related products as one unit of work.
func (s *service) CreateArticle(ctx context.Context, userID int64, input ArticleInput) (*ArticleDTO, error) {
	in, err := normalize(input, false)
	if err != nil {
		return nil, err
	}

	var article *models.Article
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		if in.slug == "" {
			derived, err := slug.Unique(ctx, in.title, s.now(), repo.SlugExists)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgCreateFailed)
			}
			in.slug = derived
		}

		article = &models.Article{
			Title:       in.title,
			Slug:        in.slug,
			Content:     in.content,
			IsPublished: in.published,
			UserID:      userID,
		}
		if err := repo.Create(ctx, article); err != nil {
			return mapWriteError(err, msgCreateFailed)
		}
		return linkProducts(ctx, repo, article.ID, in, msgCreateFailed)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Inc("article", "create")
	dto := FromModel(article)
	return &dto, nil
}

// UpdateArticle rewrites the article found by currentSlug and replaces its
// product links as one unit of work.
func (s *service) UpdateArticle(ctx context.Context, userID int64, currentSlug string, input ArticleInput) (*ArticleDTO, error) {
	in, err := normalize(input, true)
	if err != nil {
		return nil, err
	}

	var article *models.Article
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		existing, err := repo.FindBySlug(ctx, currentSlug, false)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgUpdateFailed)
		}

		if err := repo.ClearMainProduct(ctx, existing.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgUpdateFailed)
		}
		if err := repo.DeleteRelated(ctx, existing.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgUpdateFailed)
		}

		err = repo.Update(ctx, existing.ID, map[string]any{
			"title":        in.title,
			"slug":         in.slug,
			"content":      in.content,
			"is_published": in.published,
		})
		if err != nil {
			return mapWriteError(err, msgUpdateFailed)
		}
		if err := linkProducts(ctx, repo, existing.ID, in, msgUpdateFailed); err != nil {
			return err
		}

		article, err = repo.FindBySlug(ctx, in.slug, false)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgUpdateFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Inc("article", "update")
	dto := FromModel(article)
	return &dto, nil
}

func (s *service) ListArticles(ctx context.Context, params pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.ListPublished(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list articles")
	}

	mainIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		if row.MainProductID != nil {
			mainIDs = append(mainIDs, *row.MainProductID)
		}
	}
	images, err := s.products.LatestImages(ctx, mainIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load article images")
	}

	items := make([]ListItem, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		item := ListItem{
			ArticleDTO:      FromModel(&row.Article),
			ProductCount:    row.ProductCount,
			MainProductName: row.MainProductName,
		}
		if row.MainProductID != nil {
			if url, ok := images[*row.MainProductID]; ok {
				item.MainProductImageURL = &url
			}
		}
		items = append(items, item)
	}
	return &ListResult{Articles: items, Pagination: params.Meta(total)}, nil
}

func (s *service) GetArticle(ctx context.Context, articleSlug string) (*Detail, error) {
	article, err := s.repo.FindBySlug(ctx, articleSlug, true)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load article")
	}

	detail := &Detail{Article: FromModel(article), RelatedProducts: []RelatedProduct{}}

	mainProduct, err := s.repo.MainProduct(ctx, article.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load main product")
	}
	var excludeID *int64
	if mainProduct != nil {
		excludeID = &mainProduct.ID
		block, err := s.mainProductBlock(ctx, mainProduct)
		if err != nil {
			return nil, err
		}
		detail.MainProduct = block
	}

	related, err := s.repo.RelatedProducts(ctx, article.ID, excludeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load related products")
	}
	ids := make([]int64, 0, len(related))
	for _, row := range related {
		ids = append(ids, row.ID)
	}
	images, err := s.products.LatestImages(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load related images")
	}
	for i := range related {
		item := RelatedProduct{ProductDTO: *productsvc.FromModel(&related[i].Product), ReviewCount: related[i].ReviewCount}
		if url, ok := images[related[i].ID]; ok {
			item.LatestImageURL = &url
		}
		detail.RelatedProducts = append(detail.RelatedProducts, item)
	}
	return detail, nil
}

func (s *service) mainProductBlock(ctx context.Context, product *models.Product) (*MainProduct, error) {
	count, err := s.products.CountReviews(ctx, product.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count main product reviews")
	}
	rows, err := s.reviews.Latest(ctx, product.ID, DetailReviewLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load main product reviews")
	}
	images, err := s.products.LatestImages(ctx, []int64{product.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load main product image")
	}

	block := &MainProduct{
		ProductDTO:  *productsvc.FromModel(product),
		ReviewCount: count,
		Reviews:     reviews.FromRows(rows),
	}
	if url, ok := images[product.ID]; ok {
		block.LatestImageURL = &url
	}
	return block, nil
}

func (s *service) GetEditForm(ctx context.Context, articleSlug string) (*EditForm, error) {
	article, err := s.repo.FindBySlug(ctx, articleSlug, false)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load article")
	}
	mainProduct, err := s.repo.MainProduct(ctx, article.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load main product")
	}
	related, err := s.repo.RelatedProductIDs(ctx, article.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load related products")
	}

	form := &EditForm{Article: FromModel(article), RelatedProductIDs: related}
	if mainProduct != nil {
		form.MainProductID = &mainProduct.ID
	}
	return form, nil
}

func linkProducts(ctx context.Context, repo *Repository, articleID int64, in normalizedInput, failure string) error {
	if in.mainID != nil {
		if err := repo.SetMainProduct(ctx, articleID, *in.mainID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.Field(pkgerrors.CodeNotFound, "mainProductId", msgProductMissing)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, failure)
		}
	}
	if err := repo.InsertRelated(ctx, articleID, in.related); err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return pkgerrors.Field(pkgerrors.CodeNotFound, "relatedProductIds", msgProductMissing)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, failure)
	}
	return nil
}

func normalize(input ArticleInput, slugRequired bool) (normalizedInput, error) {
	in := normalizedInput{
		title:     strings.TrimSpace(input.Title),
		slug:      strings.TrimSpace(input.Slug),
		content:   input.Content,
		published: true,
		mainID:    input.MainProductID,
	}
	if input.IsPublished != nil {
		in.published = *input.IsPublished
	}
	// The editor submits 0 when no main product is picked.
	if in.mainID != nil && *in.mainID < 1 {
		in.mainID = nil
	}

	fields := map[string]string{}
	if in.title == "" {
		fields["title"] = msgTitleRequired
	}
	if strings.TrimSpace(in.content) == "" {
		fields["content"] = msgContentRequired
	}
	switch {
	case in.slug == "" && slugRequired:
		fields["slug"] = msgSlugRequired
	case in.slug != "" && !slug.Valid(in.slug):
		fields["slug"] = msgSlugInvalid
	}

	seen := map[int64]bool{}
	for _, id := range input.RelatedProductIDs {
		if in.mainID != nil && id == *in.mainID {
			fields["relatedProductIds"] = msgMainInRelated
		}
		if id < 1 || seen[id] {
			continue
		}
		seen[id] = true
		in.related = append(in.related, id)
	}

	if len(fields) > 0 {
		return normalizedInput{}, pkgerrors.New(pkgerrors.CodeValidation, msgValidation).WithDetails(fields)
	}
	return in, nil
}

func mapWriteError(err error, failure string) error {
	switch {
	case db.IsUniqueViolation(err, "slug"):
		return pkgerrors.Field(pkgerrors.CodeConflict, "slug", msgSlugTaken)
	case db.IsUniqueViolation(err, ""):
		return pkgerrors.New(pkgerrors.CodeConflict, msgDuplicate)
	case db.IsNotFound(err):
		return pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, failure)
	}
}
