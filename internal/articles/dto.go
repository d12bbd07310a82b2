package articles

import (
	"time"

	productsvc "github.com/shokujin-wiki/shokujin-api/internal/products"
	"github.com/shokujin-wiki/shokujin-api/internal/reviews"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// ArticleInput is the body of article create and update. Slug may be blank
// on create, in which case it is derived from the title.
type ArticleInput struct {
	Title             string  `json:"title"`
	Slug              string  `json:"slug"`
	Content           string  `json:"content"`
	IsPublished       *bool   `json:"isPublished,omitempty"`
	MainProductID     *int64  `json:"mainProductId,omitempty"`
	RelatedProductIDs []int64 `json:"relatedProductIds"`
}

type ArticleDTO struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Content     string    `json:"content"`
	IsPublished bool      `json:"isPublished"`
	UserID      int64     `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ListItem struct {
	ArticleDTO
	ProductCount        int64   `json:"productCount"`
	MainProductName     *string `json:"mainProductName"`
	MainProductImageURL *string `json:"mainProductImageUrl"`
}

type ListResult struct {
	Articles   []ListItem      `json:"articles"`
	Pagination pagination.Meta `json:"pagination"`
}

// MainProduct is the main product block of the article page.
type MainProduct struct {
	productsvc.ProductDTO
	ReviewCount    int64               `json:"reviewCount"`
	LatestImageURL *string             `json:"latestImageUrl"`
	Reviews        []reviews.ReviewDTO `json:"reviews"`
}

type RelatedProduct struct {
	productsvc.ProductDTO
	ReviewCount    int64   `json:"reviewCount"`
	LatestImageURL *string `json:"latestImageUrl"`
}

// Detail is the published article page.
type Detail struct {
	Article         ArticleDTO       `json:"article"`
	MainProduct     *MainProduct     `json:"mainProduct"`
	RelatedProducts []RelatedProduct `json:"relatedProducts"`
}

// EditForm prefills the article editor.
type EditForm struct {
	Article           ArticleDTO `json:"article"`
	MainProductID     *int64     `json:"mainProductId"`
	RelatedProductIDs []int64    `json:"relatedProductIds"`
}

func FromModel(a *models.Article) ArticleDTO {
	return ArticleDTO{
		ID:          a.ID,
		Title:       a.Title,
		Slug:        a.Slug,
		Content:     a.Content,
		IsPublished: a.IsPublished,
		UserID:      a.UserID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
