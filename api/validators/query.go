package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

// MaxSearchQueryLen caps free text search input.
const MaxSearchQueryLen = 100

// ParsePage resolves the page and limit query parameters.
func ParsePage(r *http.Request, resolver pagination.Resolver, defaultLimit int) (pagination.Params, error) {
	q := r.URL.Query()
	return resolver.Resolve(q.Get("page"), q.Get("limit"), defaultLimit)
}

// ParseIDParam reads a positive integer chi URL parameter. A malformed id
// is reported as notFoundMessage since no row can match it.
func ParseIDParam(r *http.Request, name, notFoundMessage string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return id, nil
}

// SearchQuery returns the trimmed q parameter.
func SearchQuery(r *http.Request) string {
	return SanitizeString(r.URL.Query().Get("q"), MaxSearchQueryLen)
}
