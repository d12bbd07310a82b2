package controllers

import (
	"net/http"
	"strings"

	"github.com/shokujin-wiki/shokujin-api/api/middleware"
	"github.com/shokujin-wiki/shokujin-api/api/responses"
	"github.com/shokujin-wiki/shokujin-api/api/validators"
	"github.com/shokujin-wiki/shokujin-api/internal/auth"
	pkgAuth "github.com/shokujin-wiki/shokujin-api/pkg/auth"
	"github.com/shokujin-wiki/shokujin-api/pkg/config"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
)

// RefreshTokenHeader carries the refresh token on POST /api/auth/refresh.
const RefreshTokenHeader = "X-Refresh-Token"

const msgLoginRequired = "ログインしてください"

// AuthSignup creates an identity and signs the new user in.
func AuthSignup(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.SignupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Signup(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthRefresh rotates the refresh token. The access token may be expired.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := middleware.BearerToken(r)
		refreshToken := strings.TrimSpace(r.Header.Get(RefreshTokenHeader))
		if !ok || refreshToken == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgLoginRequired))
			return
		}

		result, err := svc.Refresh(r.Context(), auth.RefreshRequest{AccessToken: accessToken, RefreshToken: refreshToken})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthLogout revokes the session tied to the presented access token, even
// when the token has expired.
func AuthLogout(svc auth.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := middleware.BearerToken(r)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, msgLoginRequired))
			return
		}

		claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msgLoginRequired))
			return
		}

		if err := svc.Logout(r.Context(), claims.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
