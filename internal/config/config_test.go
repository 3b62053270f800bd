package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("RECONDESK_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000/api", cfg.API.BaseURL)
	require.Equal(t, 30*time.Second, cfg.API.Timeout)
	require.Equal(t, 5*time.Minute, cfg.API.TriggerTimeout)
	require.Equal(t, time.Second, cfg.Poll.Interval)
	require.Equal(t, "blue", cfg.UI.Theme)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[api]
base_url = "https://recon.example.com/api"
timeout = "10s"

[poll]
interval = "2s"

[ui]
theme = "pink"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("RECONDESK_CONFIG", path)
	t.Setenv("RECONDESK_UI_THEME", "yellow")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://recon.example.com/api", cfg.API.BaseURL)
	require.Equal(t, 10*time.Second, cfg.API.Timeout)
	require.Equal(t, 2*time.Second, cfg.Poll.Interval)
	require.Equal(t, "yellow", cfg.UI.Theme)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[poll]\ninterval = \"0s\"\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "poll.interval")
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	t.Setenv("HOME", dir)
	t.Setenv("RECONDESK_CONFIG", "")
	t.Setenv("RECONDESK_UI_THEME", "")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	cfg.UI.Theme = "red"
	cfg.API.BaseURL = "http://127.0.0.1:9000"
	require.NoError(t, SaveFile(path, cfg))

	got, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "red", got.UI.Theme)
	require.Equal(t, "http://127.0.0.1:9000", got.API.BaseURL)
	require.Equal(t, cfg.API.TriggerTimeout, got.API.TriggerTimeout)
}
