// Package oidcprovider implements the delegated-login capability directly
// against an OIDC identity provider, as an alternative to routing OAuth
// through the managed auth backend. Discovery results are cached per issuer.
package oidcprovider

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/Vissonabe/personal-task-prioritizer/backend"
	"github.com/Vissonabe/personal-task-prioritizer/callback"
)

var _ backend.OAuthDriver = (*Driver)(nil)

// ProviderConfig describes one configured identity provider.
type ProviderConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type discovered struct {
	provider *oidc.Provider
	config   *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// Driver resolves provider names (e.g. "google") to OIDC issuers and runs
// the authorization-code flow against them.
type Driver struct {
	providers map[string]ProviderConfig

	mu     sync.RWMutex
	cache  map[string]discovered
	nonces sync.Map // state nonce -> expected id_token nonce
}

// New creates a Driver for the named providers.
func New(providers map[string]ProviderConfig) *Driver {
	return &Driver{
		providers: providers,
		cache:     make(map[string]discovered),
	}
}

func (d *Driver) discover(ctx context.Context, name string) (discovered, error) {
	d.mu.RLock()
	cached, ok := d.cache[name]
	d.mu.RUnlock()
	if ok {
		return cached, nil
	}

	cfg, ok := d.providers[name]
	if !ok {
		return discovered{}, errors.Errorf("[oidcprovider discover] unknown provider %q", name)
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return discovered{}, errors.Wrap(err, "[oidcprovider discover] oidc.NewProvider")
	}

	entry := discovered{
		provider: provider,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}

	d.mu.Lock()
	d.cache[name] = entry
	d.mu.Unlock()
	return entry, nil
}

// BeginOAuth builds the provider authorize URL. The state nonce guards the
// redirect round trip; a second nonce rides inside the ID token.
func (d *Driver) BeginOAuth(ctx context.Context, provider string) (backend.OAuthRedirect, error) {
	entry, err := d.discover(ctx, provider)
	if err != nil {
		return backend.OAuthRedirect{}, backend.WrapAuthError(backend.KindNetworkError, "identity provider unavailable", err)
	}

	state := randomToken()
	idNonce := randomToken()
	d.nonces.Store(state, idNonce)

	url := entry.config.AuthCodeURL(state, oidc.Nonce(idNonce))
	return backend.OAuthRedirect{URL: url, StateNonce: state}, nil
}

// ExchangeOAuthCallback exchanges the authorization code and verifies the ID
// token, including its nonce claim. The stored nonce is single use.
func (d *Driver) ExchangeOAuthCallback(ctx context.Context, params callback.Params) (backend.Session, error) {
	if params.Code == "" {
		return backend.Session{}, backend.NewAuthError(backend.KindInvalidCallback, "callback carried no authorization code")
	}

	expectedNonce, ok := d.nonces.LoadAndDelete(params.StateNonce)
	if !ok {
		return backend.Session{}, backend.NewAuthError(backend.KindInvalidCallback, "unknown or replayed state")
	}

	// Provider resolution: the state was issued by exactly one provider, but
	// the callback does not say which. Try each configured provider's cached
	// config; in practice a deployment configures one.
	entry, err := d.entryForCallback(ctx)
	if err != nil {
		return backend.Session{}, backend.WrapAuthError(backend.KindNetworkError, "identity provider unavailable", err)
	}

	token, err := entry.config.Exchange(ctx, params.Code)
	if err != nil {
		return backend.Session{}, backend.WrapAuthError(backend.KindInvalidCallback, "code exchange failed", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return backend.Session{}, backend.NewAuthError(backend.KindInvalidCallback, "no ID token in response")
	}

	idToken, err := entry.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return backend.Session{}, backend.WrapAuthError(backend.KindInvalidCallback, "ID token verification failed", err)
	}

	var claims struct {
		Nonce string `json:"nonce"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return backend.Session{}, backend.WrapAuthError(backend.KindInvalidCallback, "claims extraction failed", err)
	}
	if claims.Nonce != expectedNonce.(string) {
		return backend.Session{}, backend.NewAuthError(backend.KindInvalidCallback, "ID token nonce mismatch")
	}

	return backend.Session{
		UserID:       claims.Sub,
		Email:        claims.Email,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

func (d *Driver) entryForCallback(ctx context.Context) (discovered, error) {
	d.mu.RLock()
	for _, entry := range d.cache {
		d.mu.RUnlock()
		return entry, nil
	}
	d.mu.RUnlock()

	for name := range d.providers {
		return d.discover(ctx, name)
	}
	return discovered{}, errors.New("[oidcprovider entryForCallback] no providers configured")
}

func randomToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
