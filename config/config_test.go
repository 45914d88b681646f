package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, ":3001", cfg.Addr())
	assert.Equal(t, PolicyTimed, cfg.TriggerPolicy)
	assert.Equal(t, 20*time.Second, cfg.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.AdDelay)
	assert.Equal(t, "ad-", cfg.AdIDPrefix)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.MongoURI)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TRIGGER_POLICY", "GEOFENCE")
	t.Setenv("TICK_INTERVAL", "5s")
	t.Setenv("AD_DELAY", "2500ms")
	t.Setenv("PUBLIC_BASE_URL", "https://tour.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:5173, http://localhost:3000")
	t.Setenv("AD_TRIGGER_TYPE", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, PolicyGeofence, cfg.TriggerPolicy)
	assert.Equal(t, 5*time.Second, cfg.TickInterval)
	assert.Equal(t, 2500*time.Millisecond, cfg.AdDelay)
	assert.Equal(t, "https://tour.example.com", cfg.PublicBaseURL)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.True(t, cfg.AdTriggerType)
}

func TestLoadFromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REDIS_CHANNEL=bus:events\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("REDIS_CHANNEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bus:events", cfg.RedisChannel)
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("TRIGGER_POLICY", "both")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "TRIGGER_POLICY")
}

func TestValidateDurations(t *testing.T) {
	cfg := &Config{TriggerPolicy: PolicyTimed, TickInterval: time.Second, AdDelay: 0, BroadcastTimeout: time.Second, PublicBaseURL: "http://x"}
	assert.ErrorContains(t, cfg.Validate(), "AD_DELAY")
}
