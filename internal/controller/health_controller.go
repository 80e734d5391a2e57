package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

type HealthController struct {
	redis          *redis.Client
	backendEnabled bool
}

func NewHealthController(redisClient *redis.Client, backendEnabled bool) *HealthController {
	return &HealthController{redis: redisClient, backendEnabled: backendEnabled}
}

func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Readiness reports whether webpay can serve callbacks. A disabled
// payment backend is reported but does not fail readiness, so degraded
// deployments still pass health checks.
func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "redis unavailable",
		})
		return
	}

	resp := map[string]string{"status": "ready"}
	if !h.backendEnabled {
		resp["backend"] = "disabled"
	}
	writeJSON(w, http.StatusOK, resp)
}
