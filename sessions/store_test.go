package sessions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Vissonabe/personal-task-prioritizer/backend"
	"github.com/Vissonabe/personal-task-prioritizer/sessions"
)

func testSession() backend.Session {
	return backend.Session{
		UserID:      "user-1",
		Email:       "john.doe@example.com",
		AccessToken: "at-1",
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestStore_SetClearsPending(t *testing.T) {
	store := sessions.NewStore()
	store.SetPending(sessions.PendingFlow{Kind: sessions.PendingPasswordReset, RecoveryToken: "rec-1"})

	store.Set(testSession())

	require.True(t, store.Pending().None())
	sess, ok := store.Get()
	require.True(t, ok)
	require.Equal(t, "user-1", sess.UserID)
}

func TestStore_ClearKeepsPending(t *testing.T) {
	store := sessions.NewStore()
	store.Set(testSession())
	store.SetPending(sessions.PendingFlow{Kind: sessions.PendingOAuthCallback, StateNonce: "n-1"})

	store.Clear()

	_, ok := store.Get()
	require.False(t, ok)
	require.Equal(t, sessions.PendingOAuthCallback, store.Pending().Kind)
}

func TestStore_ConsumedTokens(t *testing.T) {
	store := sessions.NewStore()

	require.False(t, store.Consumed("rec-1"))
	store.MarkConsumed("rec-1")
	require.True(t, store.Consumed("rec-1"))

	// The empty string is never a token.
	store.MarkConsumed("")
	require.False(t, store.Consumed(""))
}

func TestStore_GetReturnsCopy(t *testing.T) {
	store := sessions.NewStore()
	store.Set(testSession())

	sess, _ := store.Get()
	sess.AccessToken = "mutated"

	fresh, _ := store.Get()
	require.Equal(t, "at-1", fresh.AccessToken)
}
