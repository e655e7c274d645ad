// Package authflow orchestrates the five credential flows (password login,
// signup, reset request, reset completion, delegated OAuth login) against an
// external auth backend. The UI runtime re-executes on every interaction, so
// the machine reconstructs its state from the session store each time and
// only contacts the backend for explicit submission events.
package authflow

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Vissonabe/personal-task-prioritizer/backend"
	"github.com/Vissonabe/personal-task-prioritizer/callback"
	"github.com/Vissonabe/personal-task-prioritizer/sessions"
)

const defaultCallTimeout = 10 * time.Second

const (
	msgLoggedIn        = "logged in"
	msgSignedOut       = "signed out"
	msgCheckEmail      = "check your email to verify your account"
	msgResetRequested  = "if that address is registered, a reset link has been sent"
	msgResetLinkOK     = "password reset link verified"
	msgResetLinkBad    = "invalid or expired link"
	msgPasswordUpdated = "password updated, please log in"
	msgUnavailable     = "service unavailable, please try again"
)

// Machine drives flow transitions for one interaction at a time. It holds no
// per-session state itself; everything lives in the sessions.Store passed to
// Transition, so a single Machine serves every browser session.
type Machine struct {
	client      backend.Client
	callTimeout time.Duration
	nowTime     func() time.Time
}

// Option customizes a Machine.
type Option func(*Machine)

// WithCallTimeout bounds each backend call. Expiry surfaces as NetworkError.
func WithCallTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.callTimeout = d
		}
	}
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Machine) {
		m.nowTime = nowFunc
	}
}

// New creates a Machine backed by the given client.
func New(client backend.Client, options ...Option) *Machine {
	m := &Machine{
		client:      client,
		callTimeout: defaultCallTimeout,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Resolve reconstructs the flow state from stored session state without any
// side effects. A pending password reset takes precedence over a live session
// for display purposes; the session itself stays intact.
func (m *Machine) Resolve(store *sessions.Store) State {
	switch store.Pending().Kind {
	case sessions.PendingEmailVerification:
		return StateAwaitingVerification
	case sessions.PendingPasswordReset:
		return StateAwaitingReset
	case sessions.PendingOAuthCallback:
		return StateAwaitingOAuthReturn
	}

	if sess, ok := store.Get(); ok {
		if sess.Expired(m.nowTime()) {
			store.Clear()
			return StateAnonymous
		}
		return StateAuthenticated
	}
	return StateAnonymous
}

// Transition applies one interaction to the store and reports what the
// rendering layer should show next. Every backend or parse failure is
// converted here; no error escapes to the caller.
func (m *Machine) Transition(ctx context.Context, store *sessions.Store, event Event) Result {
	state := m.Resolve(store)

	switch ev := event.(type) {
	case Rerun:
		return Result{State: state}
	case SubmitLogin:
		return m.login(ctx, store, state, ev)
	case SubmitSignup:
		return m.signup(ctx, store, state, ev)
	case SubmitResetRequest:
		return m.resetRequest(ctx, store, state, ev)
	case SubmitNewPassword:
		return m.resetComplete(ctx, store, state, ev)
	case ClickOAuth:
		return m.beginOAuth(ctx, store, state, ev)
	case InboundCallback:
		return m.inboundCallback(ctx, store, state, ev)
	case SignOut:
		return m.signOut(ctx, store, state)
	}
	return Result{State: state}
}

func (m *Machine) login(ctx context.Context, store *sessions.Store, state State, ev SubmitLogin) Result {
	// A pending reset must not trap the user: logging in abandons it, which
	// store.Set enforces by clearing the pending flow.
	if state == StateAuthenticated || state == StateAwaitingOAuthReturn {
		return Result{State: state}
	}

	sess, err := call1(m, ctx, func(ctx context.Context) (backend.Session, error) {
		return m.client.SignIn(ctx, ev.Credentials)
	})
	if err != nil {
		return m.failure(state, err)
	}

	store.Set(sess)
	return Result{State: StateAuthenticated, Message: msgLoggedIn}
}

func (m *Machine) signup(ctx context.Context, store *sessions.Store, state State, ev SubmitSignup) Result {
	if state == StateAuthenticated {
		return Result{State: state}
	}

	// Double-submission guard: a signup for this address already went out and
	// is awaiting its verification email.
	if pending := store.Pending(); pending.Kind == sessions.PendingEmailVerification && pending.Email == ev.Credentials.Email {
		return Result{State: StateAwaitingVerification, Message: msgCheckEmail}
	}
	if state != StateAnonymous {
		return Result{State: state}
	}

	if err := ValidatePasswordStrength(ev.Credentials.Password); err != nil {
		return Result{State: state, Message: err.Error(), ErrorKind: backend.KindWeakPassword}
	}

	res, err := call1(m, ctx, func(ctx context.Context) (backend.SignUpResult, error) {
		return m.client.SignUp(ctx, ev.Credentials)
	})
	if err != nil {
		return m.failure(state, err)
	}

	if res.VerificationRequired || res.Session == nil {
		store.SetPending(sessions.PendingFlow{
			Kind:  sessions.PendingEmailVerification,
			Email: ev.Credentials.Email,
		})
		return Result{State: StateAwaitingVerification, Message: msgCheckEmail}
	}

	store.Set(*res.Session)
	return Result{State: StateAuthenticated, Message: msgLoggedIn}
}

func (m *Machine) resetRequest(ctx context.Context, store *sessions.Store, state State, ev SubmitResetRequest) Result {
	// Allowed from Anonymous and, per the coexistence rule, from an
	// authenticated session too.
	if state == StateAwaitingOAuthReturn {
		return Result{State: state}
	}

	err := m.call0(ctx, func(ctx context.Context) error {
		return m.client.RequestPasswordReset(ctx, ev.Email)
	})
	if err != nil {
		// The messaging never confirms or denies account existence; only the
		// error kind carries what the backend itself reported.
		if backend.KindOf(err) == backend.KindUnknownEmail {
			return Result{State: state, Message: msgResetRequested, ErrorKind: backend.KindUnknownEmail}
		}
		return m.failure(state, err)
	}

	store.SetPending(sessions.PendingFlow{Kind: sessions.PendingPasswordReset})
	return Result{State: StateAwaitingReset, Message: msgResetRequested}
}

func (m *Machine) resetComplete(ctx context.Context, store *sessions.Store, state State, ev SubmitNewPassword) Result {
	if state != StateAwaitingReset {
		return Result{State: state}
	}

	pending := store.Pending()
	if pending.RecoveryToken == "" {
		return Result{State: state, Message: msgResetLinkBad, ErrorKind: backend.KindInvalidToken}
	}

	if err := ValidatePasswordStrength(ev.NewPassword); err != nil {
		return Result{State: state, Message: err.Error(), ErrorKind: backend.KindWeakPassword}
	}

	err := m.call0(ctx, func(ctx context.Context) error {
		return m.client.CompletePasswordReset(ctx, pending.RecoveryToken, ev.NewPassword)
	})
	if err != nil {
		return m.failure(state, err)
	}

	store.MarkConsumed(pending.RecoveryToken)
	store.SetPending(sessions.PendingFlow{})

	// A logged-in user who reset their password keeps their session; everyone
	// else must log in with the new password.
	if next := m.Resolve(store); next == StateAuthenticated {
		return Result{State: StateAuthenticated, Message: "password updated"}
	}
	return Result{State: StateAnonymous, Message: msgPasswordUpdated}
}

func (m *Machine) beginOAuth(ctx context.Context, store *sessions.Store, state State, ev ClickOAuth) Result {
	// Like login, delegated sign-in stays available while a verification or
	// reset is pending; starting it replaces the pending flow.
	if state == StateAuthenticated || state == StateAwaitingOAuthReturn {
		return Result{State: state}
	}

	redirect, err := call1(m, ctx, func(ctx context.Context) (backend.OAuthRedirect, error) {
		return m.client.BeginOAuth(ctx, ev.Provider)
	})
	if err != nil {
		return m.failure(state, err)
	}

	store.SetPending(sessions.PendingFlow{
		Kind:       sessions.PendingOAuthCallback,
		Provider:   ev.Provider,
		StateNonce: redirect.StateNonce,
	})
	return Result{State: StateAwaitingOAuthReturn, RedirectURL: redirect.URL}
}

func (m *Machine) inboundCallback(ctx context.Context, store *sessions.Store, state State, ev InboundCallback) Result {
	params := ev.Params

	if params.Error == callback.ParseFailed {
		return Result{State: state, Message: msgResetLinkBad, ErrorKind: backend.KindParseFailed}
	}

	// Recovery links win over any other interpretation while a reset is
	// pending, even for a logged-in user.
	if state == StateAwaitingReset {
		return m.captureRecoveryToken(store, params)
	}

	if state == StateAwaitingOAuthReturn {
		return m.completeOAuth(ctx, store, params)
	}

	if params.Empty() {
		return Result{State: state}
	}
	// Stale parameters from a flow this session is no longer in: instruct the
	// driver to drop them without echoing anything back.
	return Result{State: state, StripParams: params.ConsumedKeys()}
}

func (m *Machine) captureRecoveryToken(store *sessions.Store, params callback.Params) Result {
	if !params.IsRecovery() {
		if params.Empty() {
			return Result{State: StateAwaitingReset}
		}
		return Result{
			State:       StateAwaitingReset,
			Message:     msgResetLinkBad,
			ErrorKind:   backend.KindInvalidToken,
			StripParams: params.ConsumedKeys(),
		}
	}

	if store.Consumed(params.RecoveryToken) {
		return Result{
			State:       StateAwaitingReset,
			Message:     msgResetLinkBad,
			ErrorKind:   backend.KindInvalidToken,
			StripParams: params.ConsumedKeys(),
		}
	}

	pending := store.Pending()
	pending.RecoveryToken = params.RecoveryToken
	store.SetPending(pending)

	return Result{
		State:       StateAwaitingReset,
		Message:     msgResetLinkOK,
		StripParams: params.ConsumedKeys(),
	}
}

func (m *Machine) completeOAuth(ctx context.Context, store *sessions.Store, params callback.Params) Result {
	pending := store.Pending()

	abort := func(kind backend.ErrorKind) Result {
		store.SetPending(sessions.PendingFlow{})
		return Result{
			State:       StateAnonymous,
			Message:     "sign-in could not be completed, please try again",
			ErrorKind:   kind,
			StripParams: params.ConsumedKeys(),
		}
	}

	if params.Error != "" {
		log.Debug().Str("error", params.Error).Msg("provider returned an oauth error")
		return abort(backend.KindInvalidCallback)
	}

	// The nonce check happens before any backend call; a mismatch never
	// reaches the exchange.
	if params.StateNonce == "" || params.StateNonce != pending.StateNonce {
		return abort(backend.KindInvalidCallback)
	}

	sess, err := call1(m, ctx, func(ctx context.Context) (backend.Session, error) {
		return m.client.ExchangeOAuthCallback(ctx, params)
	})
	if err != nil {
		kind := backend.KindOf(err)
		if kind != backend.KindExpiredToken {
			kind = backend.KindInvalidCallback
		}
		return abort(kind)
	}

	store.MarkConsumed(pending.StateNonce)
	store.Set(sess)
	return Result{
		State:       StateAuthenticated,
		Message:     msgLoggedIn,
		StripParams: params.ConsumedKeys(),
	}
}

func (m *Machine) signOut(ctx context.Context, store *sessions.Store, state State) Result {
	if state != StateAuthenticated {
		return Result{State: state}
	}

	sess, _ := store.Get()

	// Local-first invalidation: the session is gone even if the backend call
	// fails, so a transient network loss cannot leave the UI stuck logged in.
	store.Clear()
	store.SetPending(sessions.PendingFlow{})

	if err := m.call0(ctx, func(ctx context.Context) error {
		return m.client.SignOut(ctx, sess)
	}); err != nil {
		log.Warn().Err(err).Msg("backend sign-out failed, local session cleared anyway")
	}

	return Result{State: StateAnonymous, Message: msgSignedOut}
}

// failure maps a backend error onto an unchanged state with a user-safe
// message. Raw backend text never reaches the user.
func (m *Machine) failure(state State, err error) Result {
	kind := backend.KindOf(err)
	message := msgUnavailable
	switch kind {
	case backend.KindInvalidCredentials:
		message = "invalid email or password"
	case backend.KindEmailAlreadyRegistered:
		message = "that email is already registered"
	case backend.KindWeakPassword:
		message = "password does not meet the minimum requirements"
	case backend.KindExpiredToken, backend.KindInvalidToken:
		message = msgResetLinkBad
	case backend.KindInvalidCallback:
		message = "sign-in could not be completed, please try again"
	}
	return Result{State: state, Message: message, ErrorKind: kind}
}

func (m *Machine) call0(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()
	err := fn(ctx)
	if ctx.Err() == context.DeadlineExceeded {
		return backend.WrapAuthError(backend.KindNetworkError, "backend call timed out", err)
	}
	return err
}

// call1 cannot be a method because it is generic.
func call1[T any](m *Machine, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, m.callTimeout)
	defer cancel()
	v, err := fn(ctx)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return v, backend.WrapAuthError(backend.KindNetworkError, "backend call timed out", err)
	}
	return v, err
}
