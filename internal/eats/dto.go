package eats

import (
	"time"

	"github.com/shokujin-wiki/shokujin-api/internal/media"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// CreateInput is the parsed multipart form of POST /api/eats. Either
// ProductID or ProductName identifies the product.
type CreateInput struct {
	Comment     string
	ProductID   *int64
	ProductName string
	Options     []string
	Image       *media.UploadFile
}

type OptionRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type EatDTO struct {
	ID          int64       `json:"id"`
	Comment     string      `json:"comment"`
	ImageURLs   []string    `json:"imageUrls"`
	ProductID   *int64      `json:"productId"`
	ProductName string      `json:"productName"`
	CreatedBy   int64       `json:"createdBy"`
	Options     []OptionRef `json:"options"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type ListResult struct {
	Eats       []EatDTO        `json:"eats"`
	Pagination pagination.Meta `json:"pagination"`
}

func FromModel(e *models.Eat, links []models.EatOption) EatDTO {
	images := []string(e.ImageURLs)
	if images == nil {
		images = []string{}
	}
	opts := make([]OptionRef, 0, len(links))
	for _, link := range links {
		opts = append(opts, OptionRef{ID: link.OptionID, Name: link.OptionNameSnapshot})
	}
	return EatDTO{
		ID:          e.ID,
		Comment:     e.Comment,
		ImageURLs:   images,
		ProductID:   e.ProductID,
		ProductName: e.ProductNameSnapshot,
		CreatedBy:   e.CreatedBy,
		Options:     opts,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
