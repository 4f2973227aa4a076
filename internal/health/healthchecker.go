package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by component-level checkers (store, search, embedder).
type HealthChecker interface {
	Name() string
	IsHealthy() bool
	Start(ctx context.Context, interval time.Duration)
}

// Service states reported by ServiceHealthChecker.Status.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ServiceHealthChecker folds component checkers into one service status.
// Critical components gate IsHealthy. Optional ones only degrade the status.
type ServiceHealthChecker struct {
	status   atomic.Value // string
	critical []HealthChecker
	optional []HealthChecker
	log      zerolog.Logger
}

func NewServiceHealthChecker(log zerolog.Logger, critical []HealthChecker, optional ...HealthChecker) *ServiceHealthChecker {
	h := &ServiceHealthChecker{critical: critical, optional: optional, log: log}
	h.status.Store(StatusUnhealthy)
	return h
}

// Status returns the cached service status.
func (h *ServiceHealthChecker) Status() string { return h.status.Load().(string) }

// IsHealthy reports whether every critical component is up.
func (h *ServiceHealthChecker) IsHealthy() bool { return h.Status() != StatusUnhealthy }

// Components reports the live state of each component by name.
func (h *ServiceHealthChecker) Components() map[string]bool {
	out := make(map[string]bool, len(h.critical)+len(h.optional))
	for _, c := range h.critical {
		out[c.Name()] = c.IsHealthy()
	}
	for _, c := range h.optional {
		out[c.Name()] = c.IsHealthy()
	}
	return out
}

func down(cs []HealthChecker) []string {
	var names []string
	for _, c := range cs {
		if !c.IsHealthy() {
			names = append(names, c.Name())
		}
	}
	return names
}

// evaluate recomputes the status and returns it with the components that are down.
func (h *ServiceHealthChecker) evaluate() (string, []string) {
	critDown, optDown := down(h.critical), down(h.optional)
	status := StatusHealthy
	switch {
	case len(critDown) > 0:
		status = StatusUnhealthy
	case len(optDown) > 0:
		status = StatusDegraded
	}
	h.status.Store(status)
	return status, append(critDown, optDown...)
}

// Start periodically evaluates component health and logs status changes.
func (h *ServiceHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := ""
	eval := func() {
		cur, downNames := h.evaluate()
		if cur == prev {
			return
		}
		switch cur {
		case StatusHealthy:
			h.log.Info().Msg("service health: UP")
		case StatusDegraded:
			h.log.Warn().Strs("down", downNames).Msg("service health: DEGRADED")
		default:
			h.log.Error().Strs("down", downNames).Msg("service health: DOWN")
		}
		prev = cur
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
