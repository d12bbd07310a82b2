package controllers

import (
	"net/http"

	"github.com/shokujin-wiki/shokujin-api/api/responses"
	"github.com/shokujin-wiki/shokujin-api/api/validators"
	"github.com/shokujin-wiki/shokujin-api/internal/options"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
)

// SearchOptions backs the eat form's option picker.
func SearchOptions(svc options.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.SearchOptions(r.Context(), validators.SearchQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
