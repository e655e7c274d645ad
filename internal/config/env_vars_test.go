package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetPort(t *testing.T) {
	t.Run("defaults to :8080", func(t *testing.T) {
		t.Setenv(portEnvVar, "")
		require.Equal(t, ":8080", EnvVars{}.GetPort())
	})

	t.Run("prefixes a bare port", func(t *testing.T) {
		t.Setenv(portEnvVar, "9090")
		require.Equal(t, ":9090", EnvVars{}.GetPort())
	})

	t.Run("keeps an already prefixed port", func(t *testing.T) {
		t.Setenv(portEnvVar, ":9090")
		require.Equal(t, ":9090", EnvVars{}.GetPort())
	})
}
