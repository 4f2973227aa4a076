package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// HealthPinger can be implemented by components to expose a specialized
// health check. HealthPing must return nil when the component is healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}

// PingerFunc adapts a function to HealthPinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) HealthPing(ctx context.Context) error { return f(ctx) }

const defaultProbeTimeout = 2 * time.Second

// PingChecker is a HealthChecker that probes a HealthPinger on an interval
// and caches the result.
type PingChecker struct {
	name         string
	pinger       HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

// NewPingChecker creates a checker that starts unhealthy until the first successful probe.
func NewPingChecker(name string, p HealthPinger, log zerolog.Logger, probeTimeout time.Duration) *PingChecker {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	hc := &PingChecker{name: name, pinger: p, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0)
	return hc
}

func (hc *PingChecker) Name() string { return hc.name }

// IsHealthy returns the cached health status (non-blocking).
func (hc *PingChecker) IsHealthy() bool { return hc.healthy.Load() == 1 }

// Start begins periodic health checking.
func (hc *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	hc.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hc.Check(ctx)
		}
	}
}

// Check runs one probe and updates the cached flag.
func (hc *PingChecker) Check(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, hc.probeTimeout)
	defer cancel()

	if err := hc.pinger.HealthPing(checkCtx); err != nil {
		hc.log.Error().Stack().
			Str("checker", hc.name).
			Err(err).
			Msg("health check failed")
		hc.healthy.Store(0)
		return false
	}
	hc.healthy.Store(1)
	return true
}
