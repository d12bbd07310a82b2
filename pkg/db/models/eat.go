package models

import (
	"time"

	"github.com/lib/pq"
)

// Eat is a short "I ate this" post. The product name is snapshotted so the
// post survives the product being deleted.
type Eat struct {
	ID                  int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Comment             string         `gorm:"column:comment;not null"`
	ImageURLs           pq.StringArray `gorm:"column:image_urls;type:text[];not null"`
	ProductID           *int64         `gorm:"column:product_id"`
	ProductNameSnapshot string         `gorm:"column:product_name_snapshot;not null"`
	CreatedBy           int64          `gorm:"column:created_by;not null"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

type Option struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name       string    `gorm:"column:name;not null;uniqueIndex"`
	IsVerified bool      `gorm:"column:is_verified;not null"`
	CreatedBy  *int64    `gorm:"column:created_by"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

type EatOption struct {
	EatID              int64  `gorm:"column:eat_id;primaryKey"`
	OptionID           int64  `gorm:"column:option_id;primaryKey"`
	OptionNameSnapshot string `gorm:"column:option_name_snapshot;not null"`
}

func (EatOption) TableName() string { return "eat_options" }
