package backend

import (
	"context"
	"time"

	"github.com/Vissonabe/personal-task-prioritizer/callback"
)

// Credentials carries an email/password pair for a single backend call.
// It is transient and must never be stored.
type Credentials struct {
	Email    string
	Password string
}

// Session is the authenticated identity issued by the auth backend.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the session's access token has passed its expiry.
// A zero ExpiresAt means the backend did not report one; treat as live.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SignUpResult is the outcome of a registration call. When the backend is
// configured for email verification, Session is nil and VerificationRequired
// is true; otherwise the backend signs the new user straight in.
type SignUpResult struct {
	UserID               string
	VerificationRequired bool
	Session              *Session
}

// OAuthRedirect is where the user-agent must be sent to start a delegated
// login, together with the state nonce that must round-trip on the callback.
type OAuthRedirect struct {
	URL        string
	StateNonce string
}

// OAuthDriver is the delegated-login capability of an auth backend.
type OAuthDriver interface {
	// BeginOAuth builds the provider redirect URL and issues a fresh state nonce.
	BeginOAuth(ctx context.Context, provider string) (OAuthRedirect, error)

	// ExchangeOAuthCallback turns validated callback parameters into a session.
	// Callers are responsible for checking the state nonce first; this call
	// must never be reached with a mismatched nonce.
	ExchangeOAuthCallback(ctx context.Context, params callback.Params) (Session, error)
}

// Client is the call surface to the external auth service. One implementation
// exists per real backend SDK so callers never branch on response shape.
type Client interface {
	OAuthDriver

	SignIn(ctx context.Context, creds Credentials) (Session, error)
	SignUp(ctx context.Context, creds Credentials) (SignUpResult, error)

	// RequestPasswordReset triggers the reset email. Whether a missing account
	// is reported is up to the backend; callers must not add their own
	// existence signal on top.
	RequestPasswordReset(ctx context.Context, email string) error

	CompletePasswordReset(ctx context.Context, recoveryToken, newPassword string) error

	// SignOut revokes the session on the backend. Best effort: callers clear
	// local state regardless of the outcome.
	SignOut(ctx context.Context, session Session) error
}
