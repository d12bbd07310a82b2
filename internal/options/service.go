package options

import (
	"context"
	"fmt"

	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
)

const SearchLimit = 50

// OptionDTO is a picker entry.
type OptionDTO struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsVerified bool   `json:"isVerified"`
}

func FromModel(o *models.Option) OptionDTO {
	return OptionDTO{ID: o.ID, Name: o.Name, IsVerified: o.IsVerified}
}

// Service answers the option picker.
type Service interface {
	SearchOptions(ctx context.Context, q string) ([]OptionDTO, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("option repository required")
	}
	return &service{repo: repo}, nil
}

// SearchOptions lists at most SearchLimit options whose name contains q. A
// blank q lists the first options by name.
func (s *service) SearchOptions(ctx context.Context, q string) ([]OptionDTO, error) {
	rows, err := s.repo.Search(ctx, q, SearchLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search options")
	}
	items := make([]OptionDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return items, nil
}
