package reviews

import (
	"time"

	"github.com/lib/pq"

	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// CreateInput is the body of POST /api/reviews.
type CreateInput struct {
	ProductID int64   `json:"productId"`
	Comment   string  `json:"comment"`
	ImageURL  *string `json:"imageUrl,omitempty"`
}

// UpdateInput is the body of review update. The review may be moved to
// another product.
type UpdateInput struct {
	ProductID int64   `json:"productId"`
	Comment   string  `json:"comment"`
	ImageURL  *string `json:"imageUrl,omitempty"`
}

type ReviewDTO struct {
	ID          int64     `json:"id"`
	Comment     string    `json:"comment"`
	ImageURLs   []string  `json:"imageUrls"`
	UserID      int64     `json:"userId"`
	ProductID   int64     `json:"productId"`
	ProductName string    `json:"productName,omitempty"`
	UserName    *string   `json:"userName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ListResult struct {
	Reviews    []ReviewDTO     `json:"reviews"`
	Pagination pagination.Meta `json:"pagination"`
}

func FromModel(r *models.Review) *ReviewDTO {
	if r == nil {
		return nil
	}
	images := append([]string{}, r.ImageURLs...)
	return &ReviewDTO{
		ID:        r.ID,
		Comment:   r.Comment,
		ImageURLs: images,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func FromRow(row *Row) ReviewDTO {
	dto := FromModel(&row.Review)
	dto.ProductName = row.ProductName
	dto.UserName = row.UserName
	return *dto
}

// FromRows converts joined rows to their transport shape.
func FromRows(rows []Row) []ReviewDTO {
	out := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromRow(&rows[i]))
	}
	return out
}

func toArray(images []string) pq.StringArray {
	out := pq.StringArray{}
	for _, url := range images {
		if url != "" {
			out = append(out, url)
		}
	}
	return out
}
