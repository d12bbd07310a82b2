package models

import (
	"time"

	"github.com/lib/pq"
)

type Review struct {
	ID        int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Comment   string         `gorm:"column:comment;not null"`
	ImageURLs pq.StringArray `gorm:"column:image_urls;type:text[];not null"`
	UserID    int64          `gorm:"column:user_id;not null"`
	ProductID int64          `gorm:"column:product_id;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// FirstImage returns the display image, if any.
func (r Review) FirstImage() *string {
	if len(r.ImageURLs) == 0 || r.ImageURLs[0] == "" {
		return nil
	}
	url := r.ImageURLs[0]
	return &url
}
