package db

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danielss-dev/dbfordevs/internal/errs"
)

// Manager owns the process-wide table of open connection pools, keyed by a
// caller-chosen connection identifier. It is an explicitly constructed
// service — tests build independent managers — and the only component of
// the core holding mutable long-lived state.
//
// The RWMutex guards only the bookkeeping of connect/disconnect. Queries
// executed through a PoolRef never hold the lock, so one slow dialect
// operation cannot starve unrelated connections.
type Manager struct {
	mu      sync.RWMutex
	pools   map[string]*Pool
	configs map[string]ConnectionConfig

	opts PoolOptions
	log  zerolog.Logger
}

// NewManager builds an empty manager using opts for every pool it opens.
func NewManager(opts PoolOptions, log zerolog.Logger) *Manager {
	return &Manager{
		pools:   make(map[string]*Pool),
		configs: make(map[string]ConnectionConfig),
		opts:    opts,
		log:     log.With().Str("component", "db.manager").Logger(),
	}
}

// Connect opens a pool for id using cfg. Connect is idempotent per
// identifier: an existing pool for id is closed before the new one opens
// (replace, not leak). On failure the manager's state is unchanged — no
// partial entry is left behind.
func (m *Manager) Connect(ctx context.Context, id string, cfg *ConnectionConfig) error {
	drv, err := SelectDriver(cfg.Dialect)
	if err != nil {
		return err
	}

	// Detach any existing pool under the lock, close it outside of it.
	m.mu.Lock()
	old := m.pools[id]
	delete(m.pools, id)
	delete(m.configs, id)
	m.mu.Unlock()

	if old != nil {
		m.log.Debug().Str("connection_id", id).Msg("closing replaced pool")
		old.Close()
	}

	pool, err := drv.OpenPool(ctx, cfg, m.opts)
	if err != nil {
		return err
	}

	m.mu.Lock()
	// A concurrent Connect for the same id may have won the race; the
	// close-before-replace invariant still holds.
	if racer := m.pools[id]; racer != nil {
		racer.Close()
	}
	m.pools[id] = pool
	m.configs[id] = *cfg
	m.mu.Unlock()

	m.log.Info().
		Str("connection_id", id).
		Str("dialect", string(cfg.Dialect)).
		Str("database", cfg.Database).
		Msg("connected")
	return nil
}

// Disconnect closes and removes the pool for id. Disconnecting an unknown
// identifier is a no-op, not an error.
func (m *Manager) Disconnect(id string) {
	m.mu.Lock()
	pool := m.pools[id]
	delete(m.pools, id)
	delete(m.configs, id)
	m.mu.Unlock()

	if pool != nil {
		pool.Close()
		m.log.Info().Str("connection_id", id).Msg("disconnected")
	}
}

// IsConnected reports whether a pool exists for id.
func (m *Manager) IsConnected(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.pools[id]
	return ok
}

// PoolRef borrows the pool for id for the duration of a single operation.
func (m *Manager) PoolRef(id string) (PoolRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pool, ok := m.pools[id]
	if !ok {
		return PoolRef{}, errs.Newf(errs.KindNotFound, "connection %q is not connected", id)
	}
	return pool.Ref(), nil
}

// Config returns a copy of the configuration the pool for id was opened
// with.
func (m *Manager) Config(id string) (*ConnectionConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[id]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "connection %q is not connected", id)
	}
	return &cfg, nil
}

// Driver returns the driver for the dialect the pool for id was opened with.
func (m *Manager) Driver(id string) (Driver, error) {
	cfg, err := m.Config(id)
	if err != nil {
		return nil, err
	}
	return SelectDriver(cfg.Dialect)
}

// ListConnections returns the identifiers of all open pools, sorted.
func (m *Manager) ListConnections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.pools))
	for id := range m.pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseAll disconnects every open pool. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	pools := m.pools
	m.pools = make(map[string]*Pool)
	m.configs = make(map[string]ConnectionConfig)
	m.mu.Unlock()

	for id, pool := range pools {
		pool.Close()
		m.log.Debug().Str("connection_id", id).Msg("pool closed on shutdown")
	}
}
