package migrate

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUp_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Up(db, "sqlite"))
	// Idempotent.
	require.NoError(t, Up(db, "sqlite"))

	v, err := Version(db, "sqlite")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name='idx_jobs_status'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "idx_jobs_status", name)
}

func TestDialectFor_Unknown(t *testing.T) {
	_, err := DialectFor("memory")
	assert.Error(t, err)
}
