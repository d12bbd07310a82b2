package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shokujin-wiki/shokujin-api/api/responses"
	pkgAuth "github.com/shokujin-wiki/shokujin-api/pkg/auth"
	"github.com/shokujin-wiki/shokujin-api/pkg/auth/session"
	"github.com/shokujin-wiki/shokujin-api/pkg/config"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
)

const (
	msgLoginRequired = "ログインしてください"
	msgDependency    = "一時的に処理できません。しばらくしてから再度お試しください"
)

// UserChecker confirms the users row named by a token still exists.
type UserChecker interface {
	CheckActive(ctx context.Context, userID int64, authID uuid.UUID) error
}

// Auth validates a bearer token and seeds the request context with the
// claims. users may be nil, which skips the users row lookup.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, users UserChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgLoginRequired))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msgLoginRequired))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgLoginRequired))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgDependency))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgLoginRequired))
					return
				}
			}

			if users != nil {
				if err := users.CheckActive(r.Context(), claims.UserID, claims.AuthID); err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			ctx = WithAuthID(ctx, claims.AuthID)
			ctx = WithAccessID(ctx, claims.ID)

			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID)
				ctx = logg.WithAuthID(ctx, claims.AuthID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header. The
// "Bearer " prefix is optional.
func BearerToken(r *http.Request) (string, bool) {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token, token != ""
}
