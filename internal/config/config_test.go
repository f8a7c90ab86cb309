package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullframe/trailsim/internal/controller"
)

func TestDefaultMatchesControllerDefaultConfig(t *testing.T) {
	want := controller.DefaultConfig()
	got := Default().ToControllerConfig()
	require.Equal(t, want, got)
}

func TestLoadWithoutEnvironmentMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadHonorsEnvironmentOverride(t *testing.T) {
	t.Setenv("TRAILSIM_TARGET_TPS", "30")
	t.Setenv("TRAILSIM_CLIENT_DELAY_MS", "100;1000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30, cfg.TargetTPS)
	require.Equal(t, []int64{100, 1000}, cfg.ClientDelayMS)
	// Fields left unset keep spec.md's default.
	require.Equal(t, 500.0, cfg.SyncIntervalMS)
}
