package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeChecker struct {
	name    string
	healthy atomic.Int32
}

func (f *fakeChecker) Name() string                               { return f.name }
func (f *fakeChecker) IsHealthy() bool                            { return f.healthy.Load() == 1 }
func (f *fakeChecker) Start(ctx context.Context, _ time.Duration) {}

func TestServiceHealthChecker_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeChecker{name: "store"}
	index := &fakeChecker{name: "search_index"}
	store.healthy.Store(1)
	index.healthy.Store(1)

	svc := NewServiceHealthChecker(zerolog.Nop(), []HealthChecker{store}, index)
	if svc.IsHealthy() || svc.Status() != StatusUnhealthy {
		t.Fatal("service must start unhealthy")
	}
	go svc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, func() bool { return svc.Status() == StatusHealthy })

	// optional component down: still serving, but degraded
	index.healthy.Store(0)
	waitTrue(t, func() bool { return svc.Status() == StatusDegraded })
	if !svc.IsHealthy() {
		t.Fatal("degraded service must stay healthy")
	}
	if comps := svc.Components(); comps["store"] != true || comps["search_index"] != false {
		t.Fatalf("unexpected components: %v", comps)
	}

	// critical component down
	store.healthy.Store(0)
	waitTrue(t, func() bool { return svc.Status() == StatusUnhealthy })
	if svc.IsHealthy() {
		t.Fatal("service must be unhealthy without its store")
	}

	store.healthy.Store(1)
	index.healthy.Store(1)
	waitTrue(t, func() bool { return svc.Status() == StatusHealthy })
}

func TestPingChecker(t *testing.T) {
	var fail atomic.Bool
	p := PingerFunc(func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("down")
		}
		return nil
	})
	hc := NewPingChecker("store", p, zerolog.Nop(), 0)
	if hc.IsHealthy() {
		t.Fatal("checker must start unhealthy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hc.Start(ctx, 10*time.Millisecond)
	waitTrue(t, hc.IsHealthy)

	fail.Store(true)
	waitTrue(t, func() bool { return !hc.IsHealthy() })
}

func TestPingCheckerRespectsProbeTimeout(t *testing.T) {
	p := PingerFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	hc := NewPingChecker("slow", p, zerolog.Nop(), 20*time.Millisecond)
	start := time.Now()
	if hc.Check(context.Background()) {
		t.Fatal("expected probe to fail")
	}
	if time.Since(start) > time.Second {
		t.Fatal("probe did not honor timeout")
	}
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
