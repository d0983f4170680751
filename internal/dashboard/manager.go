package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("dashboard: session not found")

// Manager owns the views of all connected clients.
type Manager struct {
	deps Deps
	opts Options

	mu    sync.RWMutex
	views map[string]*View
}

func NewManager(deps Deps, opts Options) *Manager {
	return &Manager{
		deps:  deps,
		opts:  opts,
		views: make(map[string]*View),
	}
}

// Create mounts a new view and returns it.
func (m *Manager) Create() *View {
	v := newView(uuid.NewString(), m.deps, m.opts)
	v.mount()

	m.mu.Lock()
	m.views[v.id] = v
	n := len(m.views)
	m.mu.Unlock()

	m.deps.Metrics.SetActiveSessions(n)
	m.deps.Log.Info().Str("session_id", v.id).Msg("dashboard session created")
	return v
}

func (m *Manager) Get(id string) (*View, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.views[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return v, nil
}

// Close tears a view down and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	v, ok := m.views[id]
	if ok {
		delete(m.views, id)
	}
	n := len(m.views)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	v.close()
	m.deps.Metrics.SetActiveSessions(n)
	m.deps.Log.Info().Str("session_id", id).Msg("dashboard session closed")
	return nil
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	views := m.views
	m.views = make(map[string]*View)
	m.mu.Unlock()

	for _, v := range views {
		v.close()
	}
	m.deps.Metrics.SetActiveSessions(0)
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.views)
}

// Sweep closes views that have not been used for longer than idle and returns how many it
// closed.
func (m *Manager) Sweep(now time.Time, idle time.Duration) int {
	m.mu.RLock()
	var stale []string
	for id, v := range m.views {
		if now.Sub(v.idleSince()) > idle {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	closed := 0
	for _, id := range stale {
		if err := m.Close(id); err == nil {
			closed++
		}
	}
	return closed
}

// RunSweeper sweeps idle views every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(m.deps.Clock.Now(), idle); n > 0 {
				m.deps.Log.Info().Int("closed", n).Msg("idle dashboard sessions swept")
			}
		}
	}
}
