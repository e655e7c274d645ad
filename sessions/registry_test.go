package sessions_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Vissonabe/personal-task-prioritizer/sessions"
)

func TestRegistry_IsolatesSessions(t *testing.T) {
	registry := sessions.NewRegistry(time.Minute)
	defer registry.Stop()

	storeA := registry.Resolve("session-a")
	storeB := registry.Resolve("session-b")
	require.NotSame(t, storeA, storeB)

	storeA.Set(testSession())
	_, ok := storeB.Get()
	require.False(t, ok)
}

func TestRegistry_ResolveIsStable(t *testing.T) {
	registry := sessions.NewRegistry(time.Minute)
	defer registry.Stop()

	first := registry.Resolve("session-a")
	second := registry.Resolve("session-a")
	require.Same(t, first, second)
}

func TestRegistry_Drop(t *testing.T) {
	registry := sessions.NewRegistry(time.Minute)
	defer registry.Stop()

	store := registry.Resolve("session-a")
	store.Set(testSession())

	registry.Drop("session-a")

	fresh := registry.Resolve("session-a")
	_, ok := fresh.Get()
	require.False(t, ok)
}

func TestRegistry_ExpiresIdleSessions(t *testing.T) {
	registry := sessions.NewRegistry(50 * time.Millisecond)
	defer registry.Stop()

	store := registry.Resolve("session-a")
	store.Set(testSession())

	time.Sleep(150 * time.Millisecond)

	fresh := registry.Resolve("session-a")
	_, ok := fresh.Get()
	require.False(t, ok)
}
