package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "./uploads", cfg.UploadDir)
	require.Equal(t, int64(2)<<30, cfg.MaxUploadBytes)
	require.Equal(t, "@every 10m", cfg.JanitorSpec)
	require.Equal(t, 2*time.Second, cfg.JanitorDefer)
	require.Equal(t, time.Hour, cfg.AssetTTL)
	require.Equal(t, 10*time.Minute, cfg.AssetTTLEmpty)
}
