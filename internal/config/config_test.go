package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "dubber", cfg.Queue.Name)
	assert.Equal(t, 5, cfg.Queue.MaxRetry)
	assert.Equal(t, "dubber-videos", cfg.Storage.Bucket)
	assert.Equal(t, time.Hour, cfg.Storage.PresignTTL)
	assert.Equal(t, int64(5)<<30, cfg.Upload.MaxSizeBytes)
	assert.ElementsMatch(t, []string{"mp4", "avi", "mkv", "mov", "flv", "webm"}, cfg.Upload.AllowedExtensions)
	assert.True(t, cfg.Lifecycle.OutputFallback)
	assert.Equal(t, 2*time.Second, cfg.Simulation.Interval)
	assert.Equal(t, 5, cfg.Simulation.MinStep)
	assert.Equal(t, 19, cfg.Simulation.MaxStep)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.QueuedAfter)
	assert.Equal(t, map[string]int{"dubber": 1}, cfg.Worker.Queues)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dubber.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: SQLite
  dsn: /tmp/jobs.db
simulation:
  enabled: true
  interval: 500ms
lifecycle:
  output_fallback: false
`), 0o600))

	t.Setenv("DUBBER_REDIS_ADDRESS", "redis:6379")
	t.Setenv("DUBBER_SERVER_PORT", "9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/jobs.db", cfg.Database.DSN)
	assert.True(t, cfg.Simulation.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Simulation.Interval)
	assert.False(t, cfg.Lifecycle.OutputFallback)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	base, err := LoadConfig("")
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }},
		{"storage without bucket", func(c *Config) { c.Storage.Enabled = true; c.Storage.Bucket = "" }},
		{"inverted steps", func(c *Config) { c.Simulation.Enabled = true; c.Simulation.MinStep = 10; c.Simulation.MaxStep = 2 }},
		{"no queues", func(c *Config) { c.Worker.Queues = nil }},
		{"bad level", func(c *Config) { c.Log.Level = "chatty" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero upload size", func(c *Config) { c.Upload.MaxSizeBytes = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *base
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
