package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dubber/internal/config"
	"dubber/internal/models"
	"dubber/internal/store"
	"dubber/internal/store/blob"
	"dubber/internal/store/memory"
	"dubber/internal/store/sqlite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	chdir(t, t.TempDir())
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	return cfg
}

func TestNewApp_MemoryDefaults(t *testing.T) {
	a, err := NewApp(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &memory.Store{}, a.JobStore)
	assert.IsType(t, store.NoopPublisher{}, a.Publisher)
	assert.IsType(t, &blob.PlaceholderStore{}, a.BlobStore)
	assert.Nil(t, a.Redis)
	assert.True(t, a.Engine.Policy().OutputFallback)

	checks := a.Health(context.Background())
	assert.Equal(t, map[string]error{"database": nil}, checks)

	job, err := a.JobService.Create(context.Background(), models.JobDraft{SourceObjectKey: "in.mp4", TargetLanguage: "es"})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)
}

func TestNewApp_SQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "jobs.db")
	cfg.Lifecycle.OutputFallback = false

	a, err := NewApp(cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &sqlite.Store{}, a.JobStore)
	assert.False(t, a.Engine.Policy().OutputFallback)
	assert.NoError(t, a.Health(context.Background())["database"])
}

func TestNewApp_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "oracle"
	_, err := NewApp(cfg)
	assert.Error(t, err)
}
