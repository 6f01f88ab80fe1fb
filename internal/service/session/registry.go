package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session couples a chunk store with its identity.
type Session struct {
	ID        string
	CreatedAt time.Time
	Store     *Store
}

// Age returns how long ago the session was started.
func (s *Session) Age() time.Duration {
	return time.Since(s.CreatedAt)
}

// Registry tracks live sessions by ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	limits   Limits
	newID    func() string
}

// NewRegistry creates an empty registry issuing random UUIDs.
func NewRegistry() *Registry {
	return NewRegistryWithLimits(Limits{})
}

// NewRegistryWithLimits creates a registry whose stores enforce limits.
func NewRegistryWithLimits(limits Limits) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		limits:   limits,
		newID:    uuid.NewString,
	}
}

// Create starts a new session with an empty, open store.
func (r *Registry) Create() *Session {
	s := &Session{
		ID:        r.newID(),
		CreatedAt: time.Now(),
		Store:     NewStoreWithLimits(r.limits),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get looks up a session.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove discards the session's segments and forgets it.
// Returns false if the session was unknown.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.Store.Discard()
	return true
}

// Restart empties a session's store and reopens it under the same ID. The
// session's age starts over.
func (r *Registry) Restart(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.Store.Reset()
	restarted := &Session{ID: id, CreatedAt: time.Now(), Store: s.Store}
	r.sessions[id] = restarted
	return restarted, nil
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RemoveOlderThan discards every session started more than maxAge ago and
// returns their IDs.
func (r *Registry) RemoveOlderThan(maxAge time.Duration) []string {
	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.Age() > maxAge {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, s := range stale {
		s.Store.Discard()
		ids = append(ids, s.ID)
	}
	return ids
}
