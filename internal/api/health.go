package api

import (
	"net/http"
	"time"

	"github.com/parksyoung/It-Da-sub000/internal/api/respond"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	isHealthy  func() bool
	components func() map[string]bool
	status     func() string
}

// NewHealthHandler reports status (healthy, degraded or unhealthy) when set,
// else healthy/unhealthy from isHealthy, plus per-component state when set.
func NewHealthHandler(isHealthy func() bool, components func() map[string]bool, status func() string) *HealthHandler {
	return &HealthHandler{isHealthy: isHealthy, components: components, status: status}
}

// CheckHealth handles GET /api/health
// Always returns 200; 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	switch {
	case h.status != nil:
		status = h.status()
	case h.isHealthy != nil && h.isHealthy():
		status = "healthy"
	}
	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if h.components != nil {
		response["components"] = h.components()
	}
	respond.WriteJSON(w, http.StatusOK, response)
}
