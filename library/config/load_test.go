package config

import (
	"os"
	"path/filepath"
	"testing"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`settings:
  db:
    backend: " memory "
  web:
    subscribe_rate_per_minute: 12
    login_rate_per_minute: 0
`), 0o600))

	require.NoError(t, LoadFromFile(cfgPath))
	require.Equal(t, dir, gconfig.Shared.GetString("cfg_dir"))
	require.Equal(t, "memory", StringOr("settings.db.backend", "firestore"))
	require.Equal(t, "firestore", StringOr("settings.db.missing", "firestore"))
	require.Equal(t, 12, IntOr("settings.web.subscribe_rate_per_minute", 6))
	require.Equal(t, 10, IntOr("settings.web.login_rate_per_minute", 10))
}

func TestLoadFromFileErrors(t *testing.T) {
	require.NoError(t, LoadFromFile("  "))
	require.Error(t, LoadFromFile(filepath.Join(t.TempDir(), "missing.yml")))
}
