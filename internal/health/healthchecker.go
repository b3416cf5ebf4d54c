// Package health aggregates per-backend reachability into one service flag.
package health

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Pinger is the slice of the backend adapter contract health needs.
type Pinger interface {
	CheckHealth(ctx context.Context) bool
	Name() string
}

// Monitor polls each pinger and caches a per-backend and aggregate flag.
type Monitor struct {
	healthy atomic.Int32
	pingers []Pinger
	log     zerolog.Logger

	mu       sync.RWMutex
	statuses map[string]bool
}

// NewMonitor constructs a Monitor over the given pingers.
func NewMonitor(log zerolog.Logger, pingers ...Pinger) *Monitor {
	return &Monitor{pingers: pingers, log: log, statuses: map[string]bool{}}
}

// IsHealthy returns the cached aggregate flag.
func (m *Monitor) IsHealthy() bool { return m.healthy.Load() == 1 }

// Statuses returns a copy of the cached per-backend flags.
func (m *Monitor) Statuses() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.statuses))
	for k, v := range m.statuses {
		out[k] = v
	}
	return out
}

// Start periodically evaluates backend health and updates the flags.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(0)
	eval := func() {
		all := true
		statuses := make(map[string]bool, len(m.pingers))
		for _, p := range m.pingers {
			cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			ok := p.CheckHealth(cctx)
			cancel()
			statuses[p.Name()] = ok
			if !ok {
				all = false
			}
		}
		m.mu.Lock()
		m.statuses = statuses
		m.mu.Unlock()

		if all {
			m.healthy.Store(1)
		} else {
			m.healthy.Store(0)
		}
		cur := m.healthy.Load()
		if cur != prev {
			if cur == 1 {
				m.log.Info().Msg("service health: UP")
			} else {
				m.log.Error().Interface("backends", statuses).Msg("service health: DOWN")
			}
			prev = cur
		}
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
