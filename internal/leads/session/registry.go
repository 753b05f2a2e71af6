package session

import (
	"context"
	"sync"
	"time"

	"outreach_backend/platform/apperr"
	"outreach_backend/platform/logger"

	"github.com/google/uuid"
)

// Registry owns the open sessions. Each unlock opens one; lock or idle eviction closes it.
type Registry struct {
	deps        Deps
	idleTimeout time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	onClose  []func(uuid.UUID)
}

// NewRegistry creates an empty registry. A zero idleTimeout disables eviction.
func NewRegistry(deps Deps, idleTimeout time.Duration) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = logger.Discard()
	}
	return &Registry{
		deps:        deps,
		idleTimeout: idleTimeout,
		sessions:    make(map[uuid.UUID]*Session),
	}
}

// OnClose registers fn to run after a session is closed or evicted.
// Register hooks before serving requests.
func (r *Registry) OnClose(fn func(id uuid.UUID)) {
	r.onClose = append(r.onClose, fn)
}

func (r *Registry) closed(s *Session) {
	s.Close()
	for _, fn := range r.onClose {
		fn(s.ID())
	}
}

// Open creates a new session with a fresh id.
func (r *Registry) Open() *Session {
	s := New(uuid.New(), r.deps)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.deps.Log.Info("session opened", "session_id", s.ID().String())
	return s
}

// Get returns an open session and marks it active.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.Unauthorized("session expired or locked")
	}
	s.Touch()
	return s, nil
}

// Close removes a session and cancels its runs. Closing an unknown id is a no-op.
func (r *Registry) Close(id uuid.UUID) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.closed(s)
	r.deps.Log.Info("session closed", "session_id", id.String())
	return true
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle closes every session with no activity since the idle timeout and returns how many were closed.
func (r *Registry) EvictIdle() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.deps.Now().Add(-r.idleTimeout)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		r.closed(s)
		r.deps.Log.Info("session evicted", "session_id", s.ID().String())
	}
	return len(stale)
}

// Run evicts idle sessions every interval until ctx is done, then closes everything left.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	open := r.sessions
	r.sessions = make(map[uuid.UUID]*Session)
	r.mu.Unlock()

	for _, s := range open {
		r.closed(s)
	}
}
