package organismstore

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager caches open store handles keyed by organism and closes the ones
// that go idle. Opening a SQLite file is cheap but a Postgres-backed store
// carries connection setup cost, so handles are reused across requests.
type Manager struct {
	open   Opener
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	handles map[string]*managedHandle
}

type managedHandle struct {
	store    Store
	lastUsed time.Time
}

// NewManager creates a manager around an Opener. Handles idle longer than
// ttl are closed by the sweeper.
func NewManager(open Opener, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		open:    open,
		ttl:     ttl,
		logger:  logger,
		handles: make(map[string]*managedHandle),
	}
}

// Get returns the cached handle for the organism, opening one if needed.
// Open failures are not cached: a store that comes back (file restored,
// server reachable again) is picked up on the next request.
func (m *Manager) Get(ctx context.Context, organism string) (Store, error) {
	m.mu.Lock()
	if h, ok := m.handles[organism]; ok {
		h.lastUsed = time.Now()
		m.mu.Unlock()
		return h.store, nil
	}
	m.mu.Unlock()

	store, err := m.open(ctx, organism)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have opened the same store meanwhile; keep the
	// first one and discard ours.
	if h, ok := m.handles[organism]; ok {
		store.Close()
		h.lastUsed = time.Now()
		return h.store, nil
	}
	m.handles[organism] = &managedHandle{store: store, lastUsed: time.Now()}
	m.logger.Debug("opened organism store", zap.String("organism", organism))
	return store, nil
}

// Evict closes and forgets the handle for one organism, if present. Used
// when a query error suggests the handle has gone stale.
func (m *Manager) Evict(organism string) {
	m.mu.Lock()
	h, ok := m.handles[organism]
	delete(m.handles, organism)
	m.mu.Unlock()
	if ok {
		if err := h.store.Close(); err != nil {
			m.logger.Warn("failed to close evicted store",
				zap.String("organism", organism), zap.Error(err))
		}
	}
}

// CloseIdle closes handles not used within the TTL. Returns how many were
// closed.
func (m *Manager) CloseIdle() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var idle []*managedHandle
	for organism, h := range m.handles {
		if h.lastUsed.Before(cutoff) {
			idle = append(idle, h)
			delete(m.handles, organism)
		}
	}
	m.mu.Unlock()

	for _, h := range idle {
		h.store.Close()
	}
	return len(idle)
}

// StartSweeper runs CloseIdle periodically until the context is cancelled.
func (m *Manager) StartSweeper(ctx context.Context) {
	interval := m.ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.CloseIdle(); n > 0 {
					m.logger.Debug("closed idle organism stores", zap.Int("count", n))
				}
			}
		}
	}()
}

// CloseAll closes every cached handle. Called on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[string]*managedHandle)
	m.mu.Unlock()

	for _, h := range handles {
		h.store.Close()
	}
}
