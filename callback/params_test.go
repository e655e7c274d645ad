package callback_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Vissonabe/personal-task-prioritizer/callback"
)

func TestParse(t *testing.T) {
	t.Run("oauth implicit fragment", func(t *testing.T) {
		p := callback.Parse("", "#access_token=at&refresh_token=rt&state=nonce-1")
		require.Equal(t, "at", p.AccessToken)
		require.Equal(t, "rt", p.RefreshToken)
		require.Equal(t, "nonce-1", p.StateNonce)
		require.True(t, p.HasSessionTokens())
		require.False(t, p.IsRecovery())
	})

	t.Run("oauth code in query", func(t *testing.T) {
		p := callback.Parse("code=abc123&state=nonce-1", "")
		require.Equal(t, "abc123", p.Code)
		require.False(t, p.HasSessionTokens())
	})

	t.Run("query wins over fragment", func(t *testing.T) {
		p := callback.Parse("state=from-query", "#state=from-fragment")
		require.Equal(t, "from-query", p.StateNonce)
	})

	t.Run("recovery with dedicated token key", func(t *testing.T) {
		p := callback.Parse("type=recovery&token=rec-1", "")
		require.True(t, p.IsRecovery())
		require.Equal(t, "rec-1", p.RecoveryToken)
	})

	t.Run("recovery token from access token", func(t *testing.T) {
		p := callback.Parse("", "#type=recovery&access_token=rec-2")
		require.True(t, p.IsRecovery())
		require.Equal(t, "rec-2", p.RecoveryToken)
	})

	t.Run("provider error", func(t *testing.T) {
		p := callback.Parse("error=access_denied&error_description=user+denied", "")
		require.Equal(t, "access_denied", p.Error)
		require.Equal(t, "user denied", p.ErrorDescription)
	})

	t.Run("malformed input", func(t *testing.T) {
		p := callback.Parse("token=%zz", "")
		require.Equal(t, callback.ParseFailed, p.Error)
	})

	t.Run("empty input", func(t *testing.T) {
		p := callback.Parse("", "")
		require.True(t, p.Empty())
		require.Empty(t, p.ConsumedKeys())
	})

	t.Run("parsing is pure", func(t *testing.T) {
		raw := "type=recovery&token=rec-1&state=n"
		require.Equal(t, callback.Parse(raw, ""), callback.Parse(raw, ""))
	})
}

func TestConsumedKeys(t *testing.T) {
	t.Run("recovery via access token omits the token key", func(t *testing.T) {
		p := callback.Parse("", "#type=recovery&access_token=rec-2")
		require.ElementsMatch(t, []string{"access_token", "type"}, p.ConsumedKeys())
	})

	t.Run("recovery via dedicated key includes it", func(t *testing.T) {
		p := callback.Parse("type=recovery&token=rec-1", "")
		require.ElementsMatch(t, []string{"token", "type"}, p.ConsumedKeys())
	})

	t.Run("error params are both stripped", func(t *testing.T) {
		p := callback.Parse("error=access_denied&error_description=x", "")
		require.ElementsMatch(t, []string{"error", "error_description"}, p.ConsumedKeys())
	})
}
