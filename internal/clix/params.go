package clix

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"dubber/internal/models"
)

// ParseStatuses reads the comma-separated --status flag. An empty flag
// yields nil so callers can apply their own default.
func ParseStatuses(flags *pflag.FlagSet) ([]models.JobStatus, error) {
	raw, _ := flags.GetString("status")
	var statuses []models.JobStatus
	if raw == "" {
		return statuses, nil
	}
	// Trim space and filter out empty strings in one pass
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		st, err := models.ParseJobStatus(trimmed)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// ParseJobUpdate builds a sparse update from the flags the user actually set.
func ParseJobUpdate(flags *pflag.FlagSet) (models.JobUpdate, error) {
	var upd models.JobUpdate
	if flags.Changed("status") {
		s, _ := flags.GetString("status")
		upd.Status = &s
	}
	if flags.Changed("progress") {
		p, err := flags.GetInt("progress")
		if err != nil {
			return upd, fmt.Errorf("invalid --progress: %w", err)
		}
		upd.Progress = &p
	}
	if flags.Changed("output") {
		o, _ := flags.GetString("output")
		upd.OutputObjectKey = &o
	}
	if flags.Changed("eta") {
		e, _ := flags.GetString("eta")
		upd.EstimatedTimeRemaining = &e
	}
	if flags.Changed("activity") {
		a, _ := flags.GetString("activity")
		upd.Activity = &a
	}
	if upd.IsEmpty() {
		return upd, fmt.Errorf("nothing to update: set at least one of --status, --progress, --output, --eta, --activity")
	}
	return upd, nil
}
