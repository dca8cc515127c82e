package conversation

import (
	"log/slog"
	"sync"
)

// Registry holds one Tracker per user session. Sessions never share state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Tracker
	opts     []Option
}

// NewRegistry creates a registry; opts are applied to every new Tracker.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		sessions: make(map[string]map[string]*Tracker),
		opts:     opts,
	}
}

// Get returns the tracker for a user session, creating it on first use.
func (r *Registry) Get(userID, sessionID string) *Tracker {
	if t, ok := r.Lookup(userID, sessionID); ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[userID]; !exists {
		r.sessions[userID] = make(map[string]*Tracker)
	}
	if t, exists := r.sessions[userID][sessionID]; exists {
		return t
	}
	t := NewTracker(r.opts...)
	r.sessions[userID][sessionID] = t
	slog.Debug("Conversation session created", "user_id", userID, "session_id", sessionID)
	return t
}

// Lookup returns the tracker for a user session if it exists.
func (r *Registry) Lookup(userID, sessionID string) (*Tracker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if sessions, ok := r.sessions[userID]; ok {
		t, ok := sessions[sessionID]
		return t, ok
	}
	return nil, false
}

// Clear resets and forgets a user session.
func (r *Registry) Clear(userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions, ok := r.sessions[userID]
	if !ok {
		return
	}
	if t, exists := sessions[sessionID]; exists {
		t.Clear()
		delete(sessions, sessionID)
		slog.Info("Conversation session cleared", "user_id", userID, "session_id", sessionID)
	}
	if len(sessions) == 0 {
		delete(r.sessions, userID)
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, sessions := range r.sessions {
		n += len(sessions)
	}
	return n
}
