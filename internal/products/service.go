package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/metrics"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

const (
	DefaultListLimit = 50
	SearchLimit      = 50

	MsgProductNotFound = "商品が見つかりません"
	msgNameRequired    = "商品名を入力してください"
	msgNameTaken       = "この商品名はすでに使用されています"
	msgPriceNegative   = "価格は0以上である必要があります"
	msgCreateFailed    = "商品の登録に失敗しました"
	msgUpdateFailed    = "商品の更新に失敗しました"
	msgUserNotFound    = "ユーザーが見つかりません"
)

// Service exposes product registration and the product read paths.
type Service interface {
	CreateProduct(ctx context.Context, userID int64, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, userID, productID int64, input ProductInput) (*ProductDTO, error)
	ListProducts(ctx context.Context, params pagination.Params) (*ListResult, error)
	SearchProducts(ctx context.Context, q string) ([]SearchItem, error)
	GetProductPage(ctx context.Context, productID int64) (*Page, error)
}

type service struct {
	repo    *Repository
	metrics *metrics.ContentMetrics
}

// NewService constructs a product service instance. m may be nil.
func NewService(repo *Repository, m *metrics.ContentMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

func (s *service) CreateProduct(ctx context.Context, userID int64, input ProductInput) (*ProductDTO, error) {
	name, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:       name,
		Price:      input.Price,
		IsVerified: false,
		UserID:     &userID,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, mapWriteError(err, msgCreateFailed)
	}
	s.metrics.Inc("product", "create")
	return FromModel(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, userID, productID int64, input ProductInput) (*ProductDTO, error) {
	name, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	err = s.repo.Update(ctx, productID, map[string]any{
		"name":       name,
		"price":      input.Price,
		"updated_by": userID,
	})
	if err != nil {
		return nil, mapWriteError(err, msgUpdateFailed)
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, mapWriteError(err, msgUpdateFailed)
	}
	s.metrics.Inc("product", "update")
	return FromModel(product), nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	items := make([]ListItem, 0, len(rows))
	for i := range rows {
		items = append(items, ListItem{ProductDTO: *FromModel(&rows[i].Product), ReviewCount: rows[i].ReviewCount})
	}
	return &ListResult{Products: items, Pagination: params.Meta(total)}, nil
}

// SearchProducts backs the article editor's product picker. A blank query
// returns an empty list.
func (s *service) SearchProducts(ctx context.Context, q string) ([]SearchItem, error) {
	items := []SearchItem{}
	if strings.TrimSpace(q) == "" {
		return items, nil
	}
	products, err := s.repo.Search(ctx, q, SearchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search products")
	}
	for _, p := range products {
		items = append(items, SearchItem{ID: p.ID, Name: p.Name})
	}
	return items, nil
}

func (s *service) GetProductPage(ctx context.Context, productID int64) (*Page, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, MsgProductNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	if product.MainArticleID != nil {
		slug, err := s.repo.ArticleSlug(ctx, *product.MainArticleID)
		if err == nil {
			redirect := "/articles/" + slug
			return &Page{Redirect: &redirect}, nil
		}
		if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load main article")
		}
	}

	count, err := s.repo.CountReviews(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count reviews")
	}
	image, err := s.repo.LatestImage(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load latest image")
	}

	return &Page{
		Product:        FromModel(product),
		ReviewCount:    count,
		LatestImageURL: image,
		NoIndex:        true,
	}, nil
}

func validateInput(input ProductInput) (string, error) {
	fields := map[string]string{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		fields["name"] = msgNameRequired
	}
	if input.Price.IsNegative() {
		fields["price"] = msgPriceNegative
	}
	if len(fields) > 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "入力内容に誤りがあります").WithDetails(fields)
	}
	return name, nil
}

func mapWriteError(err error, message string) error {
	switch {
	case db.IsNotFound(err):
		return pkgerrors.New(pkgerrors.CodeNotFound, MsgProductNotFound)
	case db.IsUniqueViolation(err, "name"):
		return pkgerrors.Field(pkgerrors.CodeConflict, "name", msgNameTaken)
	case db.IsForeignKeyViolation(err, ""):
		// user_id and updated_by are the only references a product write sets.
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msgUserNotFound)
	default:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
	}
}
