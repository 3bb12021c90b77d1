package provider

import (
	"log/slog"
	"sync"
)

// SessionStore maps caller sessions to the resume handles extracted from
// agent output, plus the per-session "full dialogue already sent" flag used
// by ModeFirstFullThenLast. Entries live until Forget is called; the store
// never prunes on its own.
type SessionStore struct {
	mu       sync.Mutex
	resume   map[string]string
	fullSent map[string]bool
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		resume:   make(map[string]string),
		fullSent: make(map[string]bool),
	}
}

// SetResumeHandle records the most recent handle for the session,
// overwriting any previous one (last write wins). Empty sessions or handles
// are ignored; handles must come from the agent's own output, never be
// fabricated.
func (s *SessionStore) SetResumeHandle(session, handle string) {
	if session == "" || handle == "" {
		return
	}
	s.mu.Lock()
	s.resume[session] = handle
	s.mu.Unlock()
}

// ResumeHandle returns the session's current resume handle, or "".
func (s *SessionStore) ResumeHandle(session string) string {
	if session == "" {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resume[session]
}

// MarkFullSent records that the session has had a full dialogue delivered.
func (s *SessionStore) MarkFullSent(session string) {
	if session == "" {
		return
	}
	s.mu.Lock()
	s.fullSent[session] = true
	s.mu.Unlock()
}

// FullSent reports whether the session already received a full dialogue.
func (s *SessionStore) FullSent(session string) bool {
	if session == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullSent[session]
}

// Forget drops all state for the session. Session lifecycle owners call this
// when a conversation ends.
func (s *SessionStore) Forget(session string) {
	if session == "" {
		return
	}
	s.mu.Lock()
	delete(s.resume, session)
	delete(s.fullSent, session)
	s.mu.Unlock()
}

// ModeResolver turns a configured Mode into the effective mode for one turn.
// Only ModeFirstFullThenLast is stateful: with resume enabled, a session's
// first turn uses the full dialogue and later turns send only the last user
// message. With resume disabled the hybrid mode degrades to full dialogue on
// every turn (context is not retained turn-to-turn) and a single warning is
// logged for the process lifetime.
type ModeResolver struct {
	store      *SessionStore
	logger     *slog.Logger
	configured Mode
	resume     bool
	warnOnce   sync.Once
}

// NewModeResolver builds a resolver over the given store. logger may be nil.
func NewModeResolver(configured Mode, resume bool, store *SessionStore, logger *slog.Logger) *ModeResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModeResolver{
		configured: configured,
		resume:     resume,
		store:      store,
		logger:     logger,
	}
}

// Effective resolves the mode to apply for this turn of the session.
func (r *ModeResolver) Effective(session string) Mode {
	if r.configured != ModeFirstFullThenLast {
		return r.configured
	}
	if !r.resume {
		r.warnOnce.Do(func() {
			r.logger.Warn("prompt mode first_full_then_last requires resume support; context will be lost after the first turn")
		})
		return ModeFullDialogue
	}
	if session == "" || !r.store.FullSent(session) {
		return ModeFullDialogue
	}
	return ModeLastUser
}

// MarkSent records the full→delta transition after a full-dialogue turn has
// been successfully delivered. No-op unless the configured mode is the
// hybrid policy.
func (r *ModeResolver) MarkSent(session string) {
	if r.configured != ModeFirstFullThenLast {
		return
	}
	r.store.MarkFullSent(session)
}
