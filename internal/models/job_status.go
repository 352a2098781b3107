package models

import (
	"fmt"
	"strings"
)

/*
Job status constants for use throughout the codebase.
These values are persisted as-is (jobs.status) and travel on the wire,
so they must stay upper-case.
*/

// JobStatus is the lifecycle state of a dubbing job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// ActiveStatuses are the statuses a poller or the simulator picks jobs up from.
var ActiveStatuses = []JobStatus{JobStatusQueued, JobStatusProcessing}

// AllStatuses lists every known status in lifecycle order.
var AllStatuses = []JobStatus{JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed}

// ParseJobStatus converts a raw status name (case-insensitive) into a JobStatus.
func ParseJobStatus(raw string) (JobStatus, error) {
	s := JobStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range AllStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q", raw)
}

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

func (s JobStatus) String() string { return string(s) }
