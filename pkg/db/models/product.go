package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a menu item. MainArticleID points at the article acting as the
// product's wiki page.
type Product struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string          `gorm:"column:name;not null;uniqueIndex"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	IsVerified    bool            `gorm:"column:is_verified;not null"`
	UserID        *int64          `gorm:"column:user_id"`
	UpdatedBy     *int64          `gorm:"column:updated_by"`
	MainArticleID *int64          `gorm:"column:main_article_id"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
