// Package lifecycle owns the job state machine and the partial-update rules.
// Everything here is pure: stores call Apply while holding the record.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"dubber/internal/models"
)

// Policy tunes engine behaviour that deployments disagree on.
type Policy struct {
	// OutputFallback points a job completed without an output artifact at
	// its source object, so a download is always resolvable.
	OutputFallback bool
}

// Engine validates and applies sparse updates to jobs.
type Engine struct {
	policy Policy
	now    func() time.Time
}

// New creates an Engine using the wall clock.
func New(policy Policy) *Engine {
	return &Engine{policy: policy, now: time.Now}
}

// WithClock returns a copy of the engine reading time from now.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	cp := *e
	cp.now = now
	return &cp
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy { return e.policy }

// Result describes the outcome of Apply.
type Result struct {
	Job        *models.Job
	Changed    bool        // false when nothing needs to be written
	Ignored    bool        // a stale progress report was dropped
	Transition *Transition // nil when the status did not change
}

// Apply computes the job that results from applying upd to current.
// current is never modified. On error the caller must keep the stored
// record as it is.
func (e *Engine) Apply(current *models.Job, upd models.JobUpdate) (Result, error) {
	if upd.IsEmpty() {
		return Result{Job: current.Clone()}, nil
	}
	if current.Status.IsTerminal() {
		return Result{}, models.InvalidTransitionError(current.Status, requested(upd),
			fmt.Sprintf("job is %s and accepts no further updates", current.Status))
	}

	var explicit models.JobStatus
	if upd.Status != nil {
		s, err := models.ParseJobStatus(*upd.Status)
		if err != nil {
			return Result{}, models.InvalidTransitionError(current.Status, *upd.Status, err.Error())
		}
		if !CanTransition(current.Status, s) {
			return Result{}, models.InvalidTransitionError(current.Status, string(s),
				fmt.Sprintf("cannot move job from %s to %s", current.Status, s))
		}
		explicit = s
	}

	progress := current.Progress
	hasProgress := false
	if upd.Progress != nil {
		p := *upd.Progress
		if p < 0 {
			return Result{}, models.ValidationError(models.CodeInvalidProgress, "progress must be between 0 and 100")
		}
		if p > 100 {
			p = 100
		}
		// An explicit terminal status wins over whatever progress rode along.
		if explicit != models.JobStatusFailed && explicit != models.JobStatusCompleted {
			if p < current.Progress {
				// Out-of-order report from a restarted or lagging worker.
				return Result{Job: current.Clone(), Ignored: true}, nil
			}
			progress = p
			hasProgress = true
		}
	}

	target := current.Status
	switch {
	case explicit == models.JobStatusFailed:
		target = models.JobStatusFailed
	case explicit == models.JobStatusCompleted, hasProgress && progress == 100:
		target = models.JobStatusCompleted
		progress = 100
	case current.Status == models.JobStatusQueued && (hasProgress || explicit == models.JobStatusProcessing):
		target = models.JobStatusProcessing
		if !hasProgress {
			progress = 0
		}
	}

	next := current.Clone()
	if upd.OutputObjectKey != nil {
		key := strings.TrimSpace(*upd.OutputObjectKey)
		if key == "" {
			return Result{}, models.ValidationError(models.CodeInvalidJob, "outputObjectKey must not be empty")
		}
		if target != models.JobStatusCompleted {
			return Result{}, models.InvalidTransitionError(current.Status, string(target),
				"outputObjectKey can only be set by the update that completes the job")
		}
		next.OutputObjectKey = &key
	}
	if target == models.JobStatusCompleted && next.OutputObjectKey == nil {
		if !e.policy.OutputFallback {
			return Result{}, models.InvalidTransitionError(current.Status, string(target),
				"job cannot complete without an outputObjectKey")
		}
		source := current.SourceObjectKey
		next.OutputObjectKey = &source
	}

	if upd.EstimatedTimeRemaining != nil {
		next.EstimatedTimeRemaining = *upd.EstimatedTimeRemaining
	}
	if upd.Activity != nil {
		next.Activity = *upd.Activity
	}
	next.Status = target
	next.Progress = progress

	now := e.now().UTC()
	if now.Before(current.UpdatedAt) {
		now = current.UpdatedAt
	}
	next.UpdatedAt = now

	res := Result{Job: next, Changed: true}
	if target != current.Status {
		res.Transition = &Transition{From: current.Status, To: target}
	}
	return res, nil
}

func requested(upd models.JobUpdate) string {
	if upd.Status != nil {
		return *upd.Status
	}
	return ""
}
