// Package worker consumes job notifications from the asynq queue.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"dubber/internal/models"
	"dubber/internal/tasks"
)

// JobUpdater is the part of the job service the handler needs.
type JobUpdater interface {
	Claim(ctx context.Context, id string, upd models.JobUpdate) (*models.Job, error)
}

// Deps bundles the handler dependencies.
type Deps struct {
	Jobs JobUpdater
}

// Activity and ETA reported when a worker picks a job up.
const (
	PickupActivity = "Preparing files..."
	PickupETA      = "Calculating..."
)

// RegisterHandlers wires every task type onto mux.
func RegisterHandlers(mux *asynq.ServeMux, deps Deps) {
	mux.HandleFunc(tasks.TypeJobCreated, HandleJobCreated(deps))
}

// HandleJobCreated claims a newly created job by moving it to PROCESSING.
// Deliveries are at-least-once, so a job that is no longer QUEUED is
// acknowledged without doing anything.
func HandleJobCreated(deps Deps) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload tasks.JobCreatedPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", tasks.TypeJobCreated, err, asynq.SkipRetry)
		}
		if payload.JobID == "" {
			return fmt.Errorf("%s payload has no jobId: %w", tasks.TypeJobCreated, asynq.SkipRetry)
		}
		logger := log.WithFields(log.Fields{"job_id": payload.JobID, "task": tasks.TypeJobCreated})

		_, err := deps.Jobs.Claim(ctx, payload.JobID, models.JobUpdate{
			Status:                 models.StringPtr(string(models.JobStatusProcessing)),
			Activity:               models.StringPtr(PickupActivity),
			EstimatedTimeRemaining: models.StringPtr(PickupETA),
		})
		switch {
		case err == nil:
			logger.Info("Job picked up")
			return nil
		case errors.Is(err, models.ErrNotFound):
			logger.Warn("Notification for unknown job, dropping")
			return fmt.Errorf("job %s: %v: %w", payload.JobID, err, asynq.SkipRetry)
		case errors.Is(err, models.ErrInvalidTransition):
			// Duplicate delivery, or the job already moved on.
			logger.WithError(err).Info("Job no longer queued, ignoring")
			return nil
		default:
			return fmt.Errorf("claim job %s: %w", payload.JobID, err)
		}
	}
}
