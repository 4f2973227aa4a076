package store

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/health"
	"github.com/parksyoung/It-Da-sub000/internal/model"
)

const healthProbeOwner = "__health_check__"

// NewHealthChecker probes s via HealthPing when implemented, otherwise via a
// read of a sentinel key where not-found counts as healthy.
func NewHealthChecker(s Store, log zerolog.Logger, probeTimeout time.Duration) *health.PingChecker {
	var p health.HealthPinger
	if hp, ok := s.(health.HealthPinger); ok {
		p = hp
	} else {
		p = health.PingerFunc(func(ctx context.Context) error {
			_, err := s.Persons().Get(ctx, healthProbeOwner, healthProbeOwner)
			if err != nil && !errors.Is(err, model.ErrNotFound) {
				return err
			}
			return nil
		})
	}
	return health.NewPingChecker("store", p, log, probeTimeout)
}
