package product

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// ProductInput is the body of product create and update.
type ProductInput struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductDTO is the transport shape of a product.
type ProductDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	IsVerified    bool            `json:"isVerified"`
	UserID        *int64          `json:"userId"`
	UpdatedBy     *int64          `json:"updatedBy"`
	MainArticleID *int64          `json:"mainArticleId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ListItem is a product in the paged list.
type ListItem struct {
	ProductDTO
	ReviewCount int64 `json:"reviewCount"`
}

// ListResult is one page of products.
type ListResult struct {
	Products   []ListItem      `json:"products"`
	Pagination pagination.Meta `json:"pagination"`
}

// Page describes GET /api/products/{productId}. When the product has a main
// article only Redirect is set.
type Page struct {
	Redirect       *string     `json:"redirect,omitempty"`
	Product        *ProductDTO `json:"product,omitempty"`
	ReviewCount    int64       `json:"reviewCount"`
	LatestImageURL *string     `json:"latestImageUrl"`
	NoIndex        bool        `json:"noindex"`
}

// SearchItem is a picker entry.
type SearchItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		IsVerified:    p.IsVerified,
		UserID:        p.UserID,
		UpdatedBy:     p.UpdatedBy,
		MainArticleID: p.MainArticleID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
