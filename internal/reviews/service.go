package reviews

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
	DefaultListLimit = 10

	msgCommentRequired  = "コメントを入力してください"
	msgProductRequired  = "商品を選択してください"
	msgProductMissing   = "指定された商品が存在しません"
	msgDuplicate        = "このレビューはすでに登録されています"
	msgNotFound         = "レビューが見つかりません"
	msgForbidden        = "このレビューを編集する権限がありません"
	msgCreateFailed     = "レビューの投稿に失敗しました"
	msgUpdateFailed     = "レビューの更新に失敗しました"
	msgProductNotFound  = "商品が見つかりません"
	msgUserNotFound     = "ユーザーが見つかりません"
	msgValidationFailed = "入力内容に誤りがあります"
)

// Service manages reviews.
type Service interface {
	CreateReview(ctx context.Context, userID int64, input CreateInput) (*ReviewDTO, error)
	UpdateReview(ctx context.Context, userID, reviewID int64, input UpdateInput) (*ReviewDTO, error)
	GetReview(ctx context.Context, reviewID int64) (*ReviewDTO, error)
	ListReviews(ctx context.Context, params pagination.Params) (*ListResult, error)
	ListProductReviews(ctx context.Context, productID int64, params pagination.Params) (*ListResult, error)
}

type service struct {
	repo    *Repository
	metrics *metrics.ContentMetrics
}

// NewService builds the review service. m may be nil.
func NewService(repo *Repository, m *metrics.ContentMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

func validateInput(productID int64, comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	fields := map[string]string{}
	if comment == "" {
		fields["comment"] = msgCommentRequired
	}
	if productID < 1 {
		fields["productId"] = msgProductRequired
	}
	if len(fields) > 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, msgValidationFailed).WithDetails(fields)
	}
	return comment, nil
}

// foreignKeyError tells a missing product apart from a missing author.
// sqlite does not name the violated constraint, so the product is looked up.
func (s *service) foreignKeyError(ctx context.Context, productID int64, err error, fallback string) error {
	if db.IsForeignKeyViolation(err, "user_id") {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msgUserNotFound)
	}
	exists, lookupErr := s.repo.Exists(ctx, &models.Product{}, "id = ?", productID)
	switch {
	case lookupErr != nil:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fallback)
	case !exists:
		return pkgerrors.Field(pkgerrors.CodeNotFound, "productId", msgProductMissing)
	default:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msgUserNotFound)
	}
}

func (s *service) CreateReview(ctx context.Context, userID int64, input CreateInput) (*ReviewDTO, error) {
	comment, err := validateInput(input.ProductID, input.Comment)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		Comment:   comment,
		ImageURLs: toArray(imageList(input.ImageURL)),
		UserID:    userID,
		ProductID: input.ProductID,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		switch {
		case db.IsForeignKeyViolation(err, ""):
			return nil, s.foreignKeyError(ctx, input.ProductID, err, msgCreateFailed)
		case db.IsUniqueViolation(err, ""):
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgDuplicate)
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgCreateFailed)
		}
	}
	s.metrics.Inc("review", "create")
	return FromModel(review), nil
}

// UpdateReview only touches the row when userID authored it. The ownership
// check and the write share one conditional UPDATE.
func (s *service) UpdateReview(ctx context.Context, userID, reviewID int64, input UpdateInput) (*ReviewDTO, error) {
	comment, err := validateInput(input.ProductID, input.Comment)
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateOwned(ctx, reviewID, userID, input.ProductID, comment, imageList(input.ImageURL))
	if err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return nil, s.foreignKeyError(ctx, input.ProductID, err, msgUpdateFailed)
		}
		if !db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgUpdateFailed)
		}
		existing, findErr := s.repo.FindByID(ctx, reviewID)
		if findErr != nil {
			if db.IsNotFound(findErr) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, msgUpdateFailed)
		}
		if existing.UserID != userID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgForbidden)
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}

	s.metrics.Inc("review", "update")
	return s.GetReview(ctx, reviewID)
}

func (s *service) GetReview(ctx context.Context, reviewID int64) (*ReviewDTO, error) {
	row, err := s.repo.FindRow(ctx, reviewID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load review")
	}
	dto := FromRow(row)
	return &dto, nil
}

func (s *service) ListReviews(ctx context.Context, params pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	return &ListResult{Reviews: FromRows(rows), Pagination: params.Meta(total)}, nil
}

func (s *service) ListProductReviews(ctx context.Context, productID int64, params pagination.Params) (*ListResult, error) {
	exists, err := s.repo.Exists(ctx, &models.Product{}, "id = ?", productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgProductNotFound)
	}

	rows, total, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list product reviews")
	}
	return &ListResult{Reviews: FromRows(rows), Pagination: params.Meta(total)}, nil
}

func imageList(url *string) []string {
	if url == nil || strings.TrimSpace(*url) == "" {
		return []string{}
	}
	return []string{strings.TrimSpace(*url)}
}
