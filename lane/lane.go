// Package lane provides per-lane dispatch throttling. Lanes are
// scheduling partitions attached to steps; external worker pools route on
// them, and the Manager lets deployments cap how fast the scheduler hands
// work to any one lane.
package lane

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Config defines throttling for a single lane.
type Config struct {
	// Name is the lane identifier (must match the step's Lane field).
	Name string

	// RateLimit is the maximum sustained dispatches per second for this
	// lane. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// Manager throttles dispatches per lane. Lanes without a configuration
// are unlimited. Safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	lanes map[string]*rate.Limiter
}

// NewManager creates a Manager with the given lane configurations.
func NewManager(configs ...Config) *Manager {
	m := &Manager{lanes: make(map[string]*rate.Limiter, len(configs))}
	for _, cfg := range configs {
		m.SetConfig(cfg)
	}
	return m
}

// SetConfig dynamically updates (or creates) a lane configuration.
func (m *Manager) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cfg.RateLimit <= 0 {
		delete(m.lanes, cfg.Name)
		return
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	m.lanes[cfg.Name] = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
}

// Wait blocks until the lane's limiter permits one dispatch, or the
// context is cancelled. Unlimited lanes return immediately.
func (m *Manager) Wait(ctx context.Context, laneID string) error {
	m.mu.Lock()
	limiter := m.lanes[laneID]
	m.mu.Unlock()

	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
