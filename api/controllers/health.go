package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/addonhub-backend/api/responses"
	"github.com/angelmondragon/addonhub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/addonhub-backend/pkg/errors"
	"github.com/angelmondragon/addonhub-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the db and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AddonHub-Env", cfg.App.Env)
		responses.WriteJSON(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency and reports 503 on the first failure.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-AddonHub-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}
		responses.WriteJSON(w, map[string]string{"status": "ready"})
	}
}
