package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/quadmarket/quadmarket-backend/api/responses"
	"github.com/quadmarket/quadmarket-backend/pkg/config"
	pkgerrors "github.com/quadmarket/quadmarket-backend/pkg/errors"
	"github.com/quadmarket/quadmarket-backend/pkg/logger"
)

// ReadinessChecker reports whether a dependency accepts traffic.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-QuadMarket-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-QuadMarket-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
