package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// NewestFirst is the ordering every "latest" list uses. The id tiebreak keeps
// pages stable when rows share a timestamp.
const NewestFirst = "created_at DESC, id DESC"

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Page applies the offset window of p to query.
func Page(query *gorm.DB, p pagination.Params) *gorm.DB {
	return query.Offset(p.Skip).Limit(p.Take)
}

// Exists reports whether query matches at least one row of model.
func (b Base) Exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var count int64
	if err := b.DB(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
