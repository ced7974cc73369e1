package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/supplypulse/supplypulse-backend/api/responses"
	"github.com/supplypulse/supplypulse-backend/pkg/config"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

// ReadinessCheck pairs a dependency name with its ping.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

func HealthReady(logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		statuses := make(map[string]string, len(checks))
		healthy := true

		for _, check := range checks {
			if check.Ping == nil {
				statuses[check.Name] = "skipped"
				continue
			}
			if err := check.Ping(ctx); err != nil {
				statuses[check.Name] = "unavailable"
				healthy = false
				if logg != nil {
					logg.Error(ctx, "health.ready."+check.Name, err)
				}
				continue
			}
			statuses[check.Name] = "ok"
		}

		status := http.StatusOK
		overall := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}

		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": overall,
			"checks": statuses,
		})
	}
}
