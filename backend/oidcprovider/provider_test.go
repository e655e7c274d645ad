package oidcprovider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vissonabe/personal-task-prioritizer/backend"
	"github.com/Vissonabe/personal-task-prioritizer/backend/oidcprovider"
	"github.com/Vissonabe/personal-task-prioritizer/callback"
)

// newIssuer serves a minimal OIDC discovery document.
func newIssuer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/keys",
		})
	})
	return srv
}

func newDriver(t *testing.T) *oidcprovider.Driver {
	t.Helper()
	issuer := newIssuer(t)
	return oidcprovider.New(map[string]oidcprovider.ProviderConfig{
		"google": {
			Issuer:      issuer.URL,
			ClientID:    "client-1",
			RedirectURL: "http://localhost:8080/auth/callback",
		},
	})
}

func TestDriver_BeginOAuth(t *testing.T) {
	driver := newDriver(t)

	redirect, err := driver.BeginOAuth(context.Background(), "google")
	require.NoError(t, err)
	require.NotEmpty(t, redirect.StateNonce)

	parsed, err := url.Parse(redirect.URL)
	require.NoError(t, err)
	require.Equal(t, "/authorize", parsed.Path)
	require.Equal(t, "client-1", parsed.Query().Get("client_id"))
	require.Equal(t, redirect.StateNonce, parsed.Query().Get("state"))
	require.NotEmpty(t, parsed.Query().Get("nonce"))

	// Each start issues a distinct state.
	second, err := driver.BeginOAuth(context.Background(), "google")
	require.NoError(t, err)
	require.NotEqual(t, redirect.StateNonce, second.StateNonce)
}

func TestDriver_BeginOAuth_UnknownProvider(t *testing.T) {
	driver := newDriver(t)

	_, err := driver.BeginOAuth(context.Background(), "fax-machine")
	require.Error(t, err)
	require.Equal(t, backend.KindNetworkError, backend.KindOf(err))
}

func TestDriver_ExchangeOAuthCallback_Rejections(t *testing.T) {
	t.Run("missing code", func(t *testing.T) {
		driver := newDriver(t)

		_, err := driver.ExchangeOAuthCallback(context.Background(), callback.Params{StateNonce: "s"})
		require.Equal(t, backend.KindInvalidCallback, backend.KindOf(err))
	})

	t.Run("unknown state", func(t *testing.T) {
		driver := newDriver(t)

		_, err := driver.ExchangeOAuthCallback(context.Background(), callback.Params{
			Code: "code-1", StateNonce: "never-issued",
		})
		require.Equal(t, backend.KindInvalidCallback, backend.KindOf(err))
	})

	t.Run("state is single use", func(t *testing.T) {
		driver := newDriver(t)
		redirect, err := driver.BeginOAuth(context.Background(), "google")
		require.NoError(t, err)

		params := callback.Params{Code: "code-1", StateNonce: redirect.StateNonce}
		// First attempt consumes the state even though the exchange itself
		// fails against the stub issuer.
		_, _ = driver.ExchangeOAuthCallback(context.Background(), params)

		_, err = driver.ExchangeOAuthCallback(context.Background(), params)
		require.Equal(t, backend.KindInvalidCallback, backend.KindOf(err))
	})
}
