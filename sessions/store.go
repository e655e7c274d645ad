// Package sessions holds the per-browser-session mutable state the auth flow
// runs against: the current authenticated identity and the marker for any
// in-progress multistep flow.
package sessions

import (
	"sync"

	"github.com/Vissonabe/personal-task-prioritizer/backend"
)

// PendingKind tags the variant of an in-progress flow.
type PendingKind string

const (
	PendingNone              PendingKind = ""
	PendingEmailVerification PendingKind = "email_verification"
	PendingPasswordReset     PendingKind = "password_reset"
	PendingOAuthCallback     PendingKind = "oauth_callback"
)

// PendingFlow marks a flow awaiting an out-of-band step. Exactly one variant
// is active at a time; only the fields for the tagged kind are meaningful.
type PendingFlow struct {
	Kind PendingKind

	// PendingEmailVerification
	Email string

	// PendingPasswordReset; RecoveryToken stays empty until the emailed link
	// has been followed and its token captured.
	RecoveryToken string

	// PendingOAuthCallback
	Provider   string
	StateNonce string
}

// None reports whether no flow is pending.
func (p PendingFlow) None() bool { return p.Kind == PendingNone }

// Store is the state for one logical browser session. Interactions within a
// session are strictly sequential, but the registry hands the same Store to
// every request carrying the session cookie, so access is still guarded.
type Store struct {
	mu       sync.Mutex
	session  *backend.Session
	pending  PendingFlow
	consumed map[string]struct{}
}

// NewStore returns an empty store for a fresh browser session.
func NewStore() *Store {
	return &Store{consumed: make(map[string]struct{})}
}

// Set installs the authenticated session. Successful authentication always
// clears any pending flow.
func (s *Store) Set(session backend.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := session
	s.session = &copied
	s.pending = PendingFlow{}
}

// Get returns the current session, if one is held.
func (s *Store) Get() (backend.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return backend.Session{}, false
	}
	return *s.session, true
}

// Clear drops the authenticated session, leaving any pending flow untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// SetPending replaces the pending-flow marker.
func (s *Store) SetPending(p PendingFlow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p
}

// Pending returns the current pending-flow marker.
func (s *Store) Pending() PendingFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// MarkConsumed records a one-time token as spent so a reload with a stale URL
// cannot recapture it.
func (s *Store) MarkConsumed(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumed[token] = struct{}{}
}

// Consumed reports whether a token was already spent in this session.
func (s *Store) Consumed(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.consumed[token]
	return ok
}
