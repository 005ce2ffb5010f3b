package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 1500*time.Millisecond, cfg.DedupeWindow())
	assert.Equal(t, 15, cfg.Display.PerPage)
	assert.Equal(t, 32, cfg.Notifications.Buffer)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_ReadsFileAndTrimsBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://hr.example.com/api/
  timeout_sec: 5
notifications:
  dedupe_window_ms: 250
display:
  per_page: 50
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hr.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.DedupeWindow())
	assert.Equal(t, 50, cfg.Display.PerPage)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HRCONSOLE_API_BASE_URL", "https://staging.example.com/api")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com/api", cfg.API.BaseURL)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.API.BaseURL = "https://hr.example.com/api"
	cfg.Display.PerPage = 25

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://hr.example.com/api", loaded.API.BaseURL)
	assert.Equal(t, 25, loaded.Display.PerPage)
}

func TestValidate(t *testing.T) {
	cfg := defaultAppConfig()

	cfg.API.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg.API.BaseURL = "hr.example.com"
	assert.Error(t, cfg.Validate())

	cfg.API.BaseURL = "https://hr.example.com"
	assert.NoError(t, cfg.Validate())
}
