package provider

import "sync"

// AbortRegistry tracks, per session, whether a user interruption gesture
// should currently be suppressed. Providers block a session while only
// diagnostic output is flowing and unblock it the moment real content starts
// (and on every exit path). The pipeline's interrupt handler must consult
// IsBlocked before honoring an interruption and skip it when true.
//
// One registry is typically shared process-wide; construct isolated
// instances in tests.
type AbortRegistry struct {
	mu      sync.Mutex
	blocked map[string]bool
}

// NewAbortRegistry returns an empty registry.
func NewAbortRegistry() *AbortRegistry {
	return &AbortRegistry{blocked: make(map[string]bool)}
}

// Block marks the session as abort-blocked. Empty sessions are ignored.
func (r *AbortRegistry) Block(session string) {
	if session == "" {
		return
	}
	r.mu.Lock()
	r.blocked[session] = true
	r.mu.Unlock()
}

// Unblock removes the session's block. Safe on unknown sessions.
func (r *AbortRegistry) Unblock(session string) {
	if session == "" {
		return
	}
	r.mu.Lock()
	delete(r.blocked, session)
	r.mu.Unlock()
}

// IsBlocked reports whether the session is currently abort-blocked.
// Absent sessions read as false.
func (r *AbortRegistry) IsBlocked(session string) bool {
	if session == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blocked[session]
}

// Clear is an alias for Unblock, used by session-lifecycle cleanup.
func (r *AbortRegistry) Clear(session string) {
	r.Unblock(session)
}

// DefaultAbortRegistry is the process-wide registry providers use unless an
// explicit one is injected.
var DefaultAbortRegistry = NewAbortRegistry()
