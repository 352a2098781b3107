package tasks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobCreatedPayload_WireKeys(t *testing.T) {
	raw, err := json.Marshal(JobCreatedPayload{
		JobID:           "7d3f0c1e-0000-4000-8000-000000000001",
		SourceObjectKey: "1700000000000_in.mp4",
		TargetLanguage:  "es",
		OptionsJSON:     `{"voice":"male"}`,
		Status:          "QUEUED",
	})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Len(t, fields, 5)
	assert.Equal(t, "7d3f0c1e-0000-4000-8000-000000000001", fields["jobId"])
	assert.Equal(t, "1700000000000_in.mp4", fields["sourceObjectKey"])
	assert.Equal(t, "es", fields["targetLanguage"])
	assert.Equal(t, `{"voice":"male"}`, fields["optionsJson"])
	assert.Equal(t, "QUEUED", fields["status"])
}
