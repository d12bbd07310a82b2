package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/shokujin-wiki/shokujin-api/api/responses"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
)

// OriginVerifyHeader carries the secret the CDN adds to every origin request.
const OriginVerifyHeader = "X-Origin-Verify"

// OriginVerify rejects requests that did not come through the CDN. It is a
// no-op unless enabled and token is set. Health checks are exempt.
func OriginVerify(enabled bool, token string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled || token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}
			got := r.Header.Get(OriginVerifyHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				if logg != nil {
					logg.Warn(r.Context(), "origin.verify.rejected")
				}
				responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeForbidden, "アクセスが拒否されました"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
