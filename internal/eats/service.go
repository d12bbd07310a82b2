package eats

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/shokujin-wiki/shokujin-api/internal/media"
	"github.com/shokujin-wiki/shokujin-api/internal/options"
	productsvc "github.com/shokujin-wiki/shokujin-api/internal/products"
	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/metrics"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

const (
	DefaultListLimit = 10

	msgCommentRequired = "コメントを入力してください"
	msgProductRequired = "商品名を入力してください"
	msgProductMissing  = "指定された商品が存在しません"
	msgNotFound        = "投稿が見つかりません"
	msgCreateFailed    = "不明なエラーが発生しました"
	msgValidation      = "入力内容に誤りがあります"
)

// Service records "I ate this" posts.
type Service interface {
	CreateEat(ctx context.Context, userID int64, input CreateInput) (*EatDTO, error)
	ListEats(ctx context.Context, params pagination.Params) (*ListResult, error)
	GetEat(ctx context.Context, eatID int64) (*EatDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type uploader interface {
	Upload(ctx context.Context, userID int64, file media.UploadFile) (*media.UploadResult, error)
}

// ServiceParams bundles the eat service dependencies.
type ServiceParams struct {
	DB       txRunner
	Repo     *Repository
	Uploader uploader
	Metrics  *metrics.ContentMetrics
}

type service struct {
	db       txRunner
	repo     *Repository
	uploader uploader
	metrics  *metrics.ContentMetrics
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("eat repository required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("uploader required")
	}
	return &service{db: params.DB, repo: params.Repo, uploader: params.Uploader, metrics: params.Metrics}, nil
}

// CreateEat resolves the product, stores the image and writes the eat with
// its options in one transaction. A product given only by name is created
// unverified.
func (s *service) CreateEat(ctx context.Context, userID int64, input CreateInput) (*EatDTO, error) {
	comment := strings.TrimSpace(input.Comment)
	productName := strings.TrimSpace(input.ProductName)

	fields := map[string]string{}
	if comment == "" {
		fields["comment"] = msgCommentRequired
	}
	if input.ProductID == nil && productName == "" {
		fields["productName"] = msgProductRequired
	}
	if len(fields) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgValidation).WithDetails(fields)
	}
	optionNames := normalizeOptions(input.Options)

	var (
		eat   *models.Eat
		links []models.EatOption
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := resolveProduct(ctx, productsvc.NewRepository(tx), userID, input.ProductID, productName)
		if err != nil {
			return err
		}

		images := pq.StringArray{}
		if input.Image != nil && input.Image.Size > 0 {
			uploaded, err := s.uploader.Upload(ctx, userID, *input.Image)
			if err != nil {
				return err
			}
			images = append(images, uploaded.PublicURL)
		}

		repo := NewRepository(tx)
		eat = &models.Eat{
			Comment:             comment,
			ImageURLs:           images,
			ProductID:           &product.ID,
			ProductNameSnapshot: product.Name,
			CreatedBy:           userID,
		}
		if err := repo.Create(ctx, eat); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgCreateFailed)
		}

		optionRepo := options.NewRepository(tx)
		for _, name := range optionNames {
			option, err := optionRepo.Upsert(ctx, name, userID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgCreateFailed)
			}
			links = append(links, models.EatOption{EatID: eat.ID, OptionID: option.ID, OptionNameSnapshot: option.Name})
		}
		if err := repo.LinkOptions(ctx, links); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgCreateFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Inc("eat", "create")
	sort.Slice(links, func(i, j int) bool { return links[i].OptionNameSnapshot < links[j].OptionNameSnapshot })
	dto := FromModel(eat, links)
	return &dto, nil
}

func resolveProduct(ctx context.Context, products *productsvc.Repository, userID int64, productID *int64, name string) (*models.Product, error) {
	if productID != nil {
		product, err := products.FindByID(ctx, *productID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.Field(pkgerrors.CodeNotFound, "productId", msgProductMissing)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgCreateFailed)
		}
		return product, nil
	}

	product, err := products.FindOrCreateByName(ctx, name, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgCreateFailed)
	}
	return product, nil
}

// normalizeOptions trims names, drops blanks and keeps the first of each
// duplicate.
func normalizeOptions(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func (s *service) ListEats(ctx context.Context, params pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list eats")
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	grouped, err := s.repo.OptionsFor(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load eat options")
	}

	items := make([]EatDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i], grouped[rows[i].ID]))
	}
	return &ListResult{Eats: items, Pagination: params.Meta(total)}, nil
}

func (s *service) GetEat(ctx context.Context, eatID int64) (*EatDTO, error) {
	eat, err := s.repo.FindByID(ctx, eatID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load eat")
	}
	grouped, err := s.repo.OptionsFor(ctx, []int64{eat.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load eat options")
	}
	dto := FromModel(eat, grouped[eat.ID])
	return &dto, nil
}
