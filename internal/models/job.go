package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults applied to a freshly created job.
const (
	DefaultOptionsJSON            = "{}"
	DefaultEstimatedTimeRemaining = "Waiting..."
	DefaultActivity               = "Queued"
)

// Job mirrors the jobs table schema.
type Job struct {
	ID                     uuid.UUID `db:"id" json:"id"`
	SourceObjectKey        string    `db:"source_object_key" json:"sourceObjectKey"`
	OutputObjectKey        *string   `db:"output_object_key" json:"outputObjectKey,omitempty"` // Set once, on completion
	TargetLanguage         string    `db:"target_language" json:"targetLanguage"`
	OptionsJSON            string    `db:"options_json" json:"optionsJson"`
	Status                 JobStatus `db:"status" json:"status"`
	Progress               int       `db:"progress" json:"progress"`
	EstimatedTimeRemaining string    `db:"estimated_time_remaining" json:"estimatedTimeRemaining"`
	Activity               string    `db:"activity" json:"activity"`
	CreatedAt              time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time `db:"updated_at" json:"updatedAt"`
}

// Clone returns a deep copy so stores can hand jobs out without sharing pointers.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	if j.OutputObjectKey != nil {
		key := *j.OutputObjectKey
		cp.OutputObjectKey = &key
	}
	return &cp
}

// JobDraft holds the client-supplied, immutable fields of a new job.
type JobDraft struct {
	SourceObjectKey string
	TargetLanguage  string
	OptionsJSON     string
}

// NewJob validates the draft and returns a fully populated QUEUED job
// with a server-assigned id and timestamps.
func NewJob(draft JobDraft, now time.Time) (*Job, error) {
	source := strings.TrimSpace(draft.SourceObjectKey)
	if source == "" {
		return nil, ValidationError(CodeInvalidJob, "sourceObjectKey is required")
	}
	lang := strings.TrimSpace(draft.TargetLanguage)
	if lang == "" {
		return nil, ValidationError(CodeMissingTargetLanguage, "targetLanguage is required")
	}
	options, err := NormalizeOptions(draft.OptionsJSON)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Job{
		ID:                     uuid.New(),
		SourceObjectKey:        source,
		TargetLanguage:         lang,
		OptionsJSON:            options,
		Status:                 JobStatusQueued,
		Progress:               0,
		EstimatedTimeRemaining: DefaultEstimatedTimeRemaining,
		Activity:               DefaultActivity,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// NormalizeOptions checks that raw is a JSON object and returns it compacted,
// keeping key order.
// An empty document becomes "{}".
func NormalizeOptions(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultOptionsJSON, nil
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil || doc == nil {
		return "", ValidationError(CodeInvalidOptions, "options must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return "", ValidationError(CodeInvalidOptions, "options must be a JSON object")
	}
	return buf.String(), nil
}

// JobUpdate is a sparse status report; nil fields are left untouched.
type JobUpdate struct {
	Status                 *string `json:"status,omitempty"`
	Progress               *int    `json:"progress,omitempty"`
	OutputObjectKey        *string `json:"outputObjectKey,omitempty"`
	EstimatedTimeRemaining *string `json:"estimatedTimeRemaining,omitempty"`
	Activity               *string `json:"activity,omitempty"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u JobUpdate) IsEmpty() bool {
	return u.Status == nil && u.Progress == nil && u.OutputObjectKey == nil &&
		u.EstimatedTimeRemaining == nil && u.Activity == nil
}

// StringPtr and IntPtr are small helpers for building updates.
func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }
