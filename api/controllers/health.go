package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shokujin-wiki/shokujin-api/api/responses"
	"github.com/shokujin-wiki/shokujin-api/pkg/config"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
)

const (
	envHeader   = "X-Shokujin-Env"
	msgNotReady = "依存サービスに接続できません"
)

// Pinger is satisfied by the database, redis and object storage clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency and answers 503 with the failing
// names when any of them is down.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		failed := map[string]string{}
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "health.ready.failed", err)
				}
				failed[name] = "unavailable"
			}
		}

		if len(failed) > 0 {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, msgNotReady).WithDetails(failed))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
