package throttle

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/time/rate"
)

// Config defines the start rate for one routing key.
type Config struct {
	// Key is the routing key the limit applies to.
	Key string

	// RateLimit is the maximum sustained number of actions per second that
	// may start on this key. Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the burst size for the token-bucket limiter.
	// Defaults to 1 if RateLimit is set but RateBurst is zero.
	RateBurst int
}

// keyState tracks runtime state for a single key.
type keyState struct {
	config  Config
	limiter *rate.Limiter
	waited  int64
}

// Manager enforces per-key rate limits. It is safe for concurrent use.
type Manager struct {
	mu   sync.Mutex
	keys map[string]*keyState
}

// NewManager creates a Manager with the given key configurations.
// Keys not listed here have no limits.
func NewManager(configs ...Config) *Manager {
	m := &Manager{keys: make(map[string]*keyState, len(configs))}
	for _, cfg := range configs {
		m.keys[cfg.Key] = newKeyState(cfg)
	}
	return m
}

func newKeyState(cfg Config) *keyState {
	ks := &keyState{config: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		ks.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return ks
}

func (m *Manager) limiter(key string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ks := m.keys[key]; ks != nil && ks.limiter != nil {
		ks.waited++
		return ks.limiter
	}
	return nil
}

// Wait blocks until key may start another action or ctx ends.
// Unconfigured keys return immediately.
func (m *Manager) Wait(ctx context.Context, key string) error {
	if m == nil {
		return nil
	}
	l := m.limiter(key)
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// Allow reports whether key may start an action right now, consuming a
// token if so.
func (m *Manager) Allow(key string) bool {
	if m == nil {
		return true
	}
	l := m.limiter(key)
	return l == nil || l.Allow()
}

// SetKeyConfig dynamically updates (or creates) a key configuration.
// The new limiter starts with a full bucket.
func (m *Manager) SetKeyConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ks := newKeyState(cfg)
	if existing := m.keys[cfg.Key]; existing != nil {
		ks.waited = existing.waited
	}
	m.keys[cfg.Key] = ks
}

// Config returns the configuration for key.
func (m *Manager) Config(key string) (Config, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ks := m.keys[key]; ks != nil {
		return ks.config, true
	}
	return Config{}, false
}

// Keys returns the configured keys in sorted order.
func (m *Manager) Keys() []string {
	m.mu.Lock()
	keys := make([]string, 0, len(m.keys))
	for k := range m.keys {
		keys = append(keys, k)
	}
	m.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Throttled returns how many times key has passed through its limiter.
func (m *Manager) Throttled(key string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ks := m.keys[key]; ks != nil {
		return ks.waited
	}
	return 0
}
