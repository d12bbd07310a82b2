package models

import "time"

type Article struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string    `gorm:"column:title;not null"`
	Slug        string    `gorm:"column:slug;not null;uniqueIndex"`
	Content     string    `gorm:"column:content;not null"`
	IsPublished bool      `gorm:"column:is_published;not null"`
	UserID      int64     `gorm:"column:user_id;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ArticleProduct links an article to a related (non main) product.
type ArticleProduct struct {
	ArticleID int64 `gorm:"column:article_id;primaryKey"`
	ProductID int64 `gorm:"column:product_id;primaryKey"`
}

func (ArticleProduct) TableName() string { return "article_products" }
