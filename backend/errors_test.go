package backend_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Vissonabe/personal-task-prioritizer/backend"
)

func TestKindOf(t *testing.T) {
	t.Run("direct auth error", func(t *testing.T) {
		err := backend.NewAuthError(backend.KindInvalidCredentials, "invalid login credentials")
		require.Equal(t, backend.KindInvalidCredentials, backend.KindOf(err))
	})

	t.Run("wrapped auth error", func(t *testing.T) {
		err := errors.Wrap(backend.NewAuthError(backend.KindExpiredToken, "token expired"), "outer")
		require.Equal(t, backend.KindExpiredToken, backend.KindOf(err))
	})

	t.Run("foreign error is treated as network failure", func(t *testing.T) {
		require.Equal(t, backend.KindNetworkError, backend.KindOf(errors.New("connection reset")))
	})

	t.Run("nil error has no kind", func(t *testing.T) {
		require.Equal(t, backend.ErrorKind(""), backend.KindOf(nil))
	})
}

func TestAuthError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := backend.WrapAuthError(backend.KindNetworkError, "auth service unreachable", cause)

	require.ErrorIs(t, err, cause)
	require.NotContains(t, err.Error(), "dial tcp")
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()

	// A session without a reported expiry is treated as live.
	require.False(t, backend.Session{}.Expired(now))

	require.False(t, backend.Session{ExpiresAt: now.Add(time.Hour)}.Expired(now))
	require.True(t, backend.Session{ExpiresAt: now.Add(-time.Hour)}.Expired(now))
}
