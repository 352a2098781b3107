package clix

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dubber/internal/models"
)

func updateFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("update", pflag.ContinueOnError)
	fs.String("status", "", "")
	fs.Int("progress", 0, "")
	fs.String("output", "", "")
	fs.String("eta", "", "")
	fs.String("activity", "", "")
	return fs
}

func TestParseStatuses(t *testing.T) {
	fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
	fs.String("status", "", "")

	got, err := ParseStatuses(fs)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, fs.Parse([]string{"--status", "queued, PROCESSING,,"}))
	got, err = ParseStatuses(fs)
	require.NoError(t, err)
	assert.Equal(t, []models.JobStatus{models.JobStatusQueued, models.JobStatusProcessing}, got)

	require.NoError(t, fs.Parse([]string{"--status", "paused"}))
	_, err = ParseStatuses(fs)
	assert.Error(t, err)
}

func TestParseJobUpdate_OnlyChangedFlags(t *testing.T) {
	fs := updateFlags()
	require.NoError(t, fs.Parse([]string{"--progress", "0", "--activity", "Dubbing"}))

	upd, err := ParseJobUpdate(fs)
	require.NoError(t, err)
	require.NotNil(t, upd.Progress)
	assert.Equal(t, 0, *upd.Progress)
	assert.Equal(t, "Dubbing", *upd.Activity)
	assert.Nil(t, upd.Status)
	assert.Nil(t, upd.OutputObjectKey)
	assert.Nil(t, upd.EstimatedTimeRemaining)
}

func TestParseJobUpdate_Empty(t *testing.T) {
	fs := updateFlags()
	require.NoError(t, fs.Parse(nil))
	_, err := ParseJobUpdate(fs)
	assert.Error(t, err)
}
