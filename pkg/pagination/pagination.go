package pagination

import (
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
)

const (
	// DefaultLimit is the page size used when a call site does not pick one.
	DefaultLimit = 10
	// MaxLimit is the ceiling applied when a Resolver is not configured.
	MaxLimit = 500
)

const (
	msgInvalidPage  = "ページ番号は1以上の整数で指定してください"
	msgInvalidLimit = "表示件数は1以上%d以下の整数で指定してください"
)

// Params is the resolved offset window for a paged list query.
type Params struct {
	CurrentPage int `json:"currentPage"`
	Limit       int `json:"limit"`
	Skip        int `json:"-"`
	Take        int `json:"-"`
}

// Meta describes a page of results to clients.
type Meta struct {
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
	TotalCount  int64 `json:"totalCount"`
	TotalPages  int   `json:"totalPages"`
}

// Resolver turns raw page/limit query values into Params.
type Resolver struct {
	MaxLimit int
}

// NewResolver returns a resolver capped at maxLimit, falling back to MaxLimit
// when maxLimit is not positive.
func NewResolver(maxLimit int) Resolver {
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	return Resolver{MaxLimit: maxLimit}
}

// Resolve resolves page and limit with the package level MaxLimit.
func Resolve(page, limit string, defaultLimit int) (Params, error) {
	return NewResolver(MaxLimit).Resolve(page, limit, defaultLimit)
}

// Resolve validates page (>= 1, default 1) and limit (1..MaxLimit, default
// defaultLimit). Blank values count as absent. Anything else that does not
// parse or is out of range is a validation error keyed by the offending field.
func (r Resolver) Resolve(page, limit string, defaultLimit int) (Params, error) {
	maxLimit := r.MaxLimit
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}

	fieldErrors := map[string]string{}

	currentPage := 1
	if raw := strings.TrimSpace(page); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			fieldErrors["page"] = msgInvalidPage
		} else {
			currentPage = parsed
		}
	}

	size := defaultLimit
	if raw := strings.TrimSpace(limit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxLimit {
			fieldErrors["limit"] = strings.Replace(msgInvalidLimit, "%d", strconv.Itoa(maxLimit), 1)
		} else {
			size = parsed
		}
	}

	if _, bad := fieldErrors["page"]; !bad && currentPage-1 > math.MaxInt/size {
		fieldErrors["page"] = msgInvalidPage
	}

	if len(fieldErrors) > 0 {
		return Params{}, pkgerrors.New(pkgerrors.CodeValidation, "ページ指定が不正です").WithDetails(fieldErrors)
	}

	return Params{
		CurrentPage: currentPage,
		Limit:       size,
		Skip:        (currentPage - 1) * size,
		Take:        size,
	}, nil
}

// Meta builds the page description for total matching rows.
func (p Params) Meta(total int64) Meta {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Meta{
		CurrentPage: p.CurrentPage,
		Limit:       p.Limit,
		TotalCount:  total,
		TotalPages:  pages,
	}
}
