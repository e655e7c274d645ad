package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/Vissonabe/personal-task-prioritizer/authflow"
	"github.com/Vissonabe/personal-task-prioritizer/backend/backendfake"
	"github.com/Vissonabe/personal-task-prioritizer/internal/config"
	"github.com/Vissonabe/personal-task-prioritizer/server"
)

const (
	testEmail    = "john.doe@example.com"
	testPassword = "password123"
)

type testFixture struct {
	backend *backendfake.FakeClient
	server  *server.Server
	cookies []*http.Cookie
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	fake := backendfake.NewFakeClient()
	fake.SeedAccount(testEmail, testPassword)

	srv := server.New(config.New(), server.WithBackendClient(fake))
	t.Cleanup(srv.Close)

	return &testFixture{backend: fake, server: srv}
}

// do issues one request, carrying the browser session cookie across calls.
func (f *testFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for _, c := range f.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		f.cookies = cookies
	}
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) authflow.Result {
	t.Helper()
	var result authflow.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestServer_LoginFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, server.RouteAuthSession, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, authflow.StateAnonymous, decodeResult(t, rec).State)

	rec = f.do(t, http.MethodPost, server.RouteAuthLogin,
		`{"email":"`+testEmail+`","password":"`+testPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, authflow.StateAuthenticated, decodeResult(t, rec).State)

	// The session cookie carries the login across requests.
	rec = f.do(t, http.MethodGet, server.RouteAuthSession, "")
	require.Equal(t, authflow.StateAuthenticated, decodeResult(t, rec).State)
}

func TestServer_LoginRejected(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, server.RouteAuthLogin,
		`{"email":"`+testEmail+`","password":"wrong1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decodeResult(t, rec)
	require.Equal(t, authflow.StateAnonymous, result.State)
	require.NotEmpty(t, result.ErrorKind)
}

func TestServer_SignupFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, server.RouteAuthSignup,
		`{"email":"new@example.com","password":"secret99"}`)
	require.Equal(t, authflow.StateAwaitingVerification, decodeResult(t, rec).State)

	// The rerun-style session probe stays in the waiting state without
	// another backend call.
	rec = f.do(t, http.MethodGet, server.RouteAuthSession, "")
	require.Equal(t, authflow.StateAwaitingVerification, decodeResult(t, rec).State)
	require.Equal(t, 1, f.backend.CallCount("sign_up"))
}

func TestServer_OAuthRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/oauth/google", "")
	result := decodeResult(t, rec)
	require.Equal(t, authflow.StateAwaitingOAuthReturn, result.State)
	require.NotEmpty(t, result.RedirectURL)

	// The provider sends the tokens back in the fragment; the page forwards it.
	rec = f.do(t, http.MethodPost, server.RouteCallback,
		`{"fragment":"#access_token=at&refresh_token=rt&state=nonce-google"}`)
	result = decodeResult(t, rec)
	require.Equal(t, authflow.StateAuthenticated, result.State)
	require.Contains(t, result.StripParams, "state")
}

func TestServer_RecoveryLinkViaQuery(t *testing.T) {
	f := newFixture(t)
	f.backend.SeedRecoveryToken("rec-1")

	rec := f.do(t, http.MethodPost, server.RouteResetRequest, `{"email":"`+testEmail+`"}`)
	require.Equal(t, authflow.StateAwaitingReset, decodeResult(t, rec).State)

	rec = f.do(t, http.MethodGet, server.RouteCallback+"?type=recovery&token=rec-1", "")
	result := decodeResult(t, rec)
	require.Equal(t, authflow.StateAwaitingReset, result.State)
	require.Contains(t, result.StripParams, "token")

	rec = f.do(t, http.MethodPost, server.RouteResetComplete, `{"new_password":"brandnew9"}`)
	require.Equal(t, authflow.StateAnonymous, decodeResult(t, rec).State)
}

func TestServer_Logout(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, server.RouteAuthLogin,
		`{"email":"`+testEmail+`","password":"`+testPassword+`"}`)

	rec := f.do(t, http.MethodPost, server.RouteAuthLogout, "")
	require.Equal(t, authflow.StateAnonymous, decodeResult(t, rec).State)

	rec = f.do(t, http.MethodGet, server.RouteAuthSession, "")
	require.Equal(t, authflow.StateAnonymous, decodeResult(t, rec).State)
}

func TestServer_TasksRequireAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, server.RouteAPITasks, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_BadJSONBody(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, server.RouteAuthLogin, "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_CloseReleasesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_ADDR", mr.Addr())

	f := newFixture(t)

	// A login exercises the limiter so the client actually connects.
	f.do(t, http.MethodPost, server.RouteAuthLogin,
		`{"email":"`+testEmail+`","password":"`+testPassword+`"}`)
	require.Greater(t, mr.CurrentConnectionCount(), 0)

	f.server.Close()
	require.Eventually(t, func() bool {
		return mr.CurrentConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, server.RouteHealth, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}
