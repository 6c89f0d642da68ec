package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, time.Hour, config.Refresh.GetMaxAge())
	assert.Equal(t, 2*time.Second, config.Refresh.GetStaggerDelay())
	assert.Equal(t, 10*time.Minute, config.Refresh.GetSweepTimeout())
	assert.Equal(t, 7, config.Refresh.GetPurgeDays())
	assert.False(t, config.IsProduction())
}

func TestLoadConfigMergesFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
environment = "production"

[server]
port = 9000

[refresh]
max_age_hours = 4
`), 0o644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[server]
port = 9100
`), 0o644))

	config, err := LoadConfig(base, override)
	require.NoError(t, err)

	assert.True(t, config.IsProduction())
	assert.Equal(t, 9100, config.Server.Port, "later files win")
	assert.Equal(t, 4*time.Hour, config.Refresh.GetMaxAge())
	assert.Equal(t, "0.0.0.0", config.Server.Host, "unset keys keep defaults")
}

func TestLoadConfigSkipsMissingFiles(t *testing.T) {
	config, err := LoadConfig("/nonexistent/alphatalk.toml")
	require.NoError(t, err)
	assert.Equal(t, 8080, config.Server.Port)
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("server = ["), 0o644))

	_, err := LoadConfig(bad)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ALPHATALK_PORT", "7777")
	t.Setenv("ALPHATALK_LOG_LEVEL", "debug")
	t.Setenv("GEMINI_API_KEY", "test-key")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 7777, config.Server.Port)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "test-key", config.Clients.Gemini.APIKey)
}

func TestGetTimeoutFallsBackOnGarbage(t *testing.T) {
	c := NaverConfig{Timeout: "soon"}
	assert.Equal(t, 30*time.Second, c.GetTimeout())

	c.Timeout = "5s"
	assert.Equal(t, 5*time.Second, c.GetTimeout())
}

func TestIsFresh(t *testing.T) {
	now := time.Now()
	assert.True(t, IsFresh(now.Add(-30*time.Minute), time.Hour))
	assert.False(t, IsFresh(now.Add(-2*time.Hour), time.Hour))
	assert.False(t, IsFresh(time.Time{}, time.Hour))
}
