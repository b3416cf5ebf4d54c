package api

import (
	"net/http"

	"github.com/tamshai/hr-gateway/internal/api/respond"
	"github.com/tamshai/hr-gateway/internal/health"
)

// HealthHandler exposes the cached service and per-backend health flags.
type HealthHandler struct {
	monitor *health.Monitor
}

func NewHealthHandler(monitor *health.Monitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// CheckHealth GET /api/health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	respond.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
}

// CheckBackends GET /api/health/backends
func (h *HealthHandler) CheckBackends(w http.ResponseWriter, r *http.Request) {
	statuses := h.monitor.Statuses()
	code := http.StatusOK
	for _, ok := range statuses {
		if !ok {
			code = http.StatusServiceUnavailable
			break
		}
	}
	respond.WriteJSON(w, code, map[string]any{"backends": statuses})
}
