package backendfake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Vissonabe/personal-task-prioritizer/backend"
	"github.com/Vissonabe/personal-task-prioritizer/callback"
)

var _ backend.Client = (*FakeClient)(nil)

// FakeClient is an in-memory backend.Client for tests. Accounts and recovery
// tokens are seeded directly; every call is counted so tests can assert that
// reruns issue no duplicate backend traffic.
type FakeClient struct {
	lock sync.Mutex

	accounts       map[string]string // email -> password
	registered     map[string]bool
	recoveryTokens map[string]bool // token -> still valid
	verifyOnSignup bool
	pendingNonce   string
	failWith       error
	failOps        map[string]error
	Calls          map[string]int
	sessionCounter int
	minPasswordLen int
}

// NewFakeClient returns a fake with email verification enabled, mirroring the
// common backend default.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		accounts:       make(map[string]string),
		registered:     make(map[string]bool),
		recoveryTokens: make(map[string]bool),
		failOps:        make(map[string]error),
		Calls:          make(map[string]int),
		verifyOnSignup: true,
		minPasswordLen: 6,
	}
}

// SeedAccount registers an existing account.
func (f *FakeClient) SeedAccount(email, password string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.accounts[email] = password
	f.registered[email] = true
}

// SeedRecoveryToken makes a recovery token valid for one completion.
func (f *FakeClient) SeedRecoveryToken(token string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.recoveryTokens[token] = true
}

// SetVerificationRequired toggles whether SignUp demands email verification.
func (f *FakeClient) SetVerificationRequired(required bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.verifyOnSignup = required
}

// FailNext makes every subsequent call fail with err until reset with nil.
func (f *FakeClient) FailNext(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.failWith = err
}

// FailOp makes one named operation fail with err.
func (f *FakeClient) FailOp(op string, err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.failOps[op] = err
}

// CallCount reports how many times the named operation was invoked.
func (f *FakeClient) CallCount(op string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.Calls[op]
}

func (f *FakeClient) record(op string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Calls[op]++
	if err, ok := f.failOps[op]; ok && err != nil {
		return err
	}
	return f.failWith
}

func (f *FakeClient) newSession(email string) backend.Session {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.sessionCounter++
	return backend.Session{
		UserID:       "user-" + email,
		Email:        email,
		AccessToken:  fmt.Sprintf("access-%s-%d", email, f.sessionCounter),
		RefreshToken: fmt.Sprintf("refresh-%s-%d", email, f.sessionCounter),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func (f *FakeClient) SignIn(_ context.Context, creds backend.Credentials) (backend.Session, error) {
	if err := f.record("sign_in"); err != nil {
		return backend.Session{}, err
	}
	f.lock.Lock()
	password, ok := f.accounts[creds.Email]
	f.lock.Unlock()
	if !ok || password != creds.Password {
		return backend.Session{}, backend.NewAuthError(backend.KindInvalidCredentials, "invalid login credentials")
	}
	return f.newSession(creds.Email), nil
}

func (f *FakeClient) SignUp(_ context.Context, creds backend.Credentials) (backend.SignUpResult, error) {
	if err := f.record("sign_up"); err != nil {
		return backend.SignUpResult{}, err
	}
	f.lock.Lock()
	registered := f.registered[creds.Email]
	verify := f.verifyOnSignup
	minLen := f.minPasswordLen
	f.lock.Unlock()

	if registered {
		return backend.SignUpResult{}, backend.NewAuthError(backend.KindEmailAlreadyRegistered, "email already registered")
	}
	if len(creds.Password) < minLen {
		return backend.SignUpResult{}, backend.NewAuthError(backend.KindWeakPassword, "password too short")
	}

	f.lock.Lock()
	f.registered[creds.Email] = true
	f.accounts[creds.Email] = creds.Password
	f.lock.Unlock()

	result := backend.SignUpResult{UserID: "user-" + creds.Email, VerificationRequired: verify}
	if !verify {
		sess := f.newSession(creds.Email)
		result.Session = &sess
	}
	return result, nil
}

func (f *FakeClient) RequestPasswordReset(_ context.Context, email string) error {
	if err := f.record("request_password_reset"); err != nil {
		return err
	}
	f.lock.Lock()
	registered := f.registered[email]
	f.lock.Unlock()
	if !registered {
		return backend.NewAuthError(backend.KindUnknownEmail, "user not found")
	}
	return nil
}

func (f *FakeClient) CompletePasswordReset(_ context.Context, recoveryToken, newPassword string) error {
	if err := f.record("complete_password_reset"); err != nil {
		return err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	valid, known := f.recoveryTokens[recoveryToken]
	if !known {
		return backend.NewAuthError(backend.KindInvalidToken, "unknown recovery token")
	}
	if !valid {
		return backend.NewAuthError(backend.KindExpiredToken, "recovery token already used")
	}
	if len(newPassword) < f.minPasswordLen {
		return backend.NewAuthError(backend.KindWeakPassword, "password too short")
	}
	f.recoveryTokens[recoveryToken] = false
	return nil
}

func (f *FakeClient) BeginOAuth(_ context.Context, provider string) (backend.OAuthRedirect, error) {
	if err := f.record("begin_oauth"); err != nil {
		return backend.OAuthRedirect{}, err
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.pendingNonce = "nonce-" + provider
	return backend.OAuthRedirect{
		URL:        "https://provider.example.com/authorize?state=" + f.pendingNonce,
		StateNonce: f.pendingNonce,
	}, nil
}

func (f *FakeClient) ExchangeOAuthCallback(_ context.Context, params callback.Params) (backend.Session, error) {
	if err := f.record("exchange_oauth_callback"); err != nil {
		return backend.Session{}, err
	}
	if params.HasSessionTokens() || params.Code != "" {
		return f.newSession("oauth@example.com"), nil
	}
	return backend.Session{}, backend.NewAuthError(backend.KindInvalidCallback, "missing tokens and code")
}

func (f *FakeClient) SignOut(_ context.Context, _ backend.Session) error {
	return f.record("sign_out")
}
