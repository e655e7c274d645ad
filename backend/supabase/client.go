// Package supabase implements backend.Client against a GoTrue-shaped auth
// service: password grant, signup, recovery email, user update, OAuth
// authorize redirect and callback exchange.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/Vissonabe/personal-task-prioritizer/backend"
	"github.com/Vissonabe/personal-task-prioritizer/callback"
)

const defaultHTTPTimeout = 10 * time.Second

var _ backend.Client = (*Client)(nil)

// Client talks to one Supabase project. BaseURL is the project URL; APIKey is
// the anon key sent on every request.
type Client struct {
	baseURL     string
	apiKey      string
	redirectURL string
	http        *http.Client
	nonce       func() string
	oauthDriver backend.OAuthDriver
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithNonceSource replaces the state-nonce generator (primarily for testing).
func WithNonceSource(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.nonce = fn
		}
	}
}

// WithOAuthDriver delegates the OAuth capability to another implementation,
// e.g. a direct OIDC provider, while keeping password flows on Supabase.
func WithOAuthDriver(d backend.OAuthDriver) Option {
	return func(c *Client) { c.oauthDriver = d }
}

// New creates a Client. redirectURL is where the backend sends the user-agent
// back after email or OAuth actions.
func New(baseURL, apiKey, redirectURL string, options ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		redirectURL: redirectURL,
		http:        &http.Client{Timeout: defaultHTTPTimeout},
		nonce:       newStateNonce,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	User         *userPayload `json:"user"`
}

type userPayload struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	ConfirmationSentAt string `json:"confirmation_sent_at"`
	EmailConfirmedAt   string `json:"email_confirmed_at"`
}

type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e errorPayload) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SignIn performs the password grant.
func (c *Client) SignIn(ctx context.Context, creds backend.Credentials) (backend.Session, error) {
	var resp tokenResponse
	err := c.post(ctx, "/auth/v1/token?grant_type=password", "", map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	}, &resp)
	if err != nil {
		return backend.Session{}, classify(err, backend.KindInvalidCredentials)
	}
	if resp.AccessToken == "" {
		return backend.Session{}, backend.NewAuthError(backend.KindInvalidCredentials, "authentication succeeded but no session was created")
	}
	return c.session(resp), nil
}

// SignUp registers a new user. When the project requires email confirmation
// GoTrue returns the user without a session and a confirmation_sent_at mark.
func (c *Client) SignUp(ctx context.Context, creds backend.Credentials) (backend.SignUpResult, error) {
	var resp struct {
		tokenResponse
		userPayload
	}
	err := c.post(ctx, "/auth/v1/signup", "", map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	}, &resp)
	if err != nil {
		return backend.SignUpResult{}, classify(err, backend.KindEmailAlreadyRegistered)
	}

	result := backend.SignUpResult{UserID: resp.ID}
	if resp.User != nil {
		result.UserID = resp.User.ID
	}
	if resp.AccessToken != "" {
		sess := c.session(resp.tokenResponse)
		result.Session = &sess
		return result, nil
	}
	result.VerificationRequired = true
	return result, nil
}

// RequestPasswordReset triggers the recovery email. The redirect target is
// the configured app URL so the emailed link lands back in the flow.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	path := "/auth/v1/recover?redirect_to=" + url.QueryEscape(c.redirectURL)
	err := c.post(ctx, path, "", map[string]string{"email": email}, nil)
	if err != nil {
		return classify(err, backend.KindUnknownEmail)
	}
	return nil
}

// CompletePasswordReset sets a new password authorized by the emailed
// recovery token. JWT-shaped tokens act as a bearer directly; OTP-style
// tokens are first verified into a session.
func (c *Client) CompletePasswordReset(ctx context.Context, recoveryToken, newPassword string) error {
	bearer := recoveryToken
	if !looksLikeJWT(recoveryToken) {
		var resp tokenResponse
		err := c.post(ctx, "/auth/v1/verify", "", map[string]string{
			"type":  "recovery",
			"token": recoveryToken,
		}, &resp)
		if err != nil {
			return classify(err, backend.KindInvalidToken)
		}
		if resp.AccessToken == "" {
			return backend.NewAuthError(backend.KindInvalidToken, "recovery verification returned no session")
		}
		bearer = resp.AccessToken
	}

	err := c.put(ctx, "/auth/v1/user", bearer, map[string]string{"password": newPassword})
	if err != nil {
		return classify(err, backend.KindExpiredToken)
	}
	return nil
}

// BeginOAuth builds the provider authorize URL with a fresh state nonce.
func (c *Client) BeginOAuth(ctx context.Context, provider string) (backend.OAuthRedirect, error) {
	if c.oauthDriver != nil {
		return c.oauthDriver.BeginOAuth(ctx, provider)
	}

	nonce := c.nonce()
	conf := &oauth2.Config{
		Endpoint:    oauth2.Endpoint{AuthURL: c.baseURL + "/auth/v1/authorize"},
		RedirectURL: c.redirectURL,
	}
	authURL := conf.AuthCodeURL(nonce, oauth2.SetAuthURLParam("provider", provider))
	return backend.OAuthRedirect{URL: authURL, StateNonce: nonce}, nil
}

// ExchangeOAuthCallback turns callback parameters into a session. The
// redirect carries either an implicit-style token pair in the fragment or an
// authorization code for the PKCE exchange; both shapes are accepted.
func (c *Client) ExchangeOAuthCallback(ctx context.Context, params callback.Params) (backend.Session, error) {
	if c.oauthDriver != nil {
		return c.oauthDriver.ExchangeOAuthCallback(ctx, params)
	}

	if params.HasSessionTokens() {
		user, err := c.fetchUser(ctx, params.AccessToken)
		if err != nil {
			return backend.Session{}, classify(err, backend.KindInvalidCallback)
		}
		return c.session(tokenResponse{
			AccessToken:  params.AccessToken,
			RefreshToken: params.RefreshToken,
			User:         user,
		}), nil
	}

	if params.Code != "" {
		var resp tokenResponse
		err := c.post(ctx, "/auth/v1/token?grant_type=pkce", "", map[string]string{
			"auth_code": params.Code,
		}, &resp)
		if err != nil {
			return backend.Session{}, classify(err, backend.KindInvalidCallback)
		}
		return c.session(resp), nil
	}

	return backend.Session{}, backend.NewAuthError(backend.KindInvalidCallback, "callback carried neither tokens nor a code")
}

// SignOut revokes the session's refresh token on the backend.
func (c *Client) SignOut(ctx context.Context, session backend.Session) error {
	err := c.post(ctx, "/auth/v1/logout", session.AccessToken, nil, nil)
	if err != nil {
		return classify(err, backend.KindNetworkError)
	}
	return nil
}

func (c *Client) fetchUser(ctx context.Context, accessToken string) (*userPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, errors.Wrap(err, "[supabase fetchUser] build request")
	}
	c.setHeaders(req, accessToken)

	var user userPayload
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// session builds a backend.Session, preferring the claims embedded in the
// access token over the (sometimes absent) user payload.
func (c *Client) session(resp tokenResponse) backend.Session {
	sess := backend.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	if resp.User != nil {
		sess.UserID = resp.User.ID
		sess.Email = resp.User.Email
	}
	if resp.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	claims, err := parseAccessClaims(resp.AccessToken)
	if err != nil {
		log.Debug().Err(err).Msg("could not parse access token claims")
		return sess
	}
	if sess.UserID == "" {
		sess.UserID = claims.Subject
	}
	if sess.Email == "" {
		sess.Email = claims.Email
	}
	if sess.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess
}

func (c *Client) post(ctx context.Context, path, bearer string, body any, out any) error {
	return c.send(ctx, http.MethodPost, path, bearer, body, out)
}

func (c *Client) put(ctx context.Context, path, bearer string, body any) error {
	return c.send(ctx, http.MethodPut, path, bearer, body, nil)
}

func (c *Client) send(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "[supabase send] encode body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "[supabase send] build request")
	}
	c.setHeaders(req, bearer)

	return c.do(req, out)
}

func (c *Client) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return backend.WrapAuthError(backend.KindNetworkError, "auth service unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return backend.WrapAuthError(backend.KindNetworkError, "auth service response unreadable", err)
	}

	if resp.StatusCode >= 400 {
		var payload errorPayload
		_ = json.Unmarshal(raw, &payload)
		return &statusError{status: resp.StatusCode, message: payload.text()}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return backend.WrapAuthError(backend.KindNetworkError, "auth service response malformed", err)
		}
	}
	return nil
}

// statusError carries the backend rejection before taxonomy mapping.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("auth backend rejected the request (%d): %s", e.status, e.message)
}

// classify maps a transport-level error onto the taxonomy. Message text from
// GoTrue decides the specific kinds; fallback names what the failing
// operation most plausibly means by a 4xx.
func classify(err error, fallback backend.ErrorKind) error {
	se, ok := err.(*statusError)
	if !ok {
		var ae *backend.AuthError
		if errors.As(err, &ae) {
			return err
		}
		return backend.WrapAuthError(backend.KindNetworkError, "auth service unreachable", err)
	}

	lower := strings.ToLower(se.message)
	switch {
	case strings.Contains(lower, "invalid login credentials"):
		return backend.WrapAuthError(backend.KindInvalidCredentials, "invalid login credentials", se)
	case strings.Contains(lower, "already registered"), strings.Contains(lower, "already been registered"):
		return backend.WrapAuthError(backend.KindEmailAlreadyRegistered, "email already registered", se)
	case strings.Contains(lower, "password"):
		return backend.WrapAuthError(backend.KindWeakPassword, "password rejected by backend", se)
	case strings.Contains(lower, "user not found"):
		return backend.WrapAuthError(backend.KindUnknownEmail, "no account for that email", se)
	case strings.Contains(lower, "expired"):
		return backend.WrapAuthError(backend.KindExpiredToken, "token expired", se)
	case strings.Contains(lower, "token"), se.status == http.StatusUnauthorized:
		return backend.WrapAuthError(backend.KindInvalidToken, "token rejected", se)
	case se.status >= 500:
		return backend.WrapAuthError(backend.KindNetworkError, "auth service error", se)
	}
	return backend.WrapAuthError(fallback, se.message, se)
}

func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}
