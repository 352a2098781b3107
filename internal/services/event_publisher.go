package services

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"dubber/internal/metrics"
	"dubber/internal/models"
	"dubber/internal/store"
	"dubber/internal/tasks"
)

// EventPublisher announces new jobs to workers. Delivery is best-effort:
// the job record is already durable when PublishJobCreated runs.
type EventPublisher struct {
	publisher store.Publisher
	metrics   *metrics.Metrics
}

func NewEventPublisher(p store.Publisher, m *metrics.Metrics) *EventPublisher {
	if p == nil {
		p = store.NoopPublisher{}
	}
	return &EventPublisher{publisher: p, metrics: m}
}

// JobCreatedPayload builds the notification body for job.
func JobCreatedPayload(job *models.Job) tasks.JobCreatedPayload {
	return tasks.JobCreatedPayload{
		JobID:           job.ID.String(),
		SourceObjectKey: job.SourceObjectKey,
		TargetLanguage:  job.TargetLanguage,
		OptionsJSON:     job.OptionsJSON,
		Status:          string(job.Status),
	}
}

// Publish sends the job.created notification and returns any failure as a
// DependencyUnavailable error.
func (e *EventPublisher) Publish(ctx context.Context, job *models.Job) error {
	body, err := json.Marshal(JobCreatedPayload(job))
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", tasks.TypeJobCreated, err)
	}
	if err := e.publisher.Publish(ctx, tasks.TypeJobCreated, body); err != nil {
		return models.DependencyError(models.CodePublishError, "publish "+tasks.TypeJobCreated, err)
	}
	return nil
}

// PublishJobCreated is Publish with failures logged and swallowed.
func (e *EventPublisher) PublishJobCreated(ctx context.Context, job *models.Job) {
	if err := e.Publish(ctx, job); err != nil {
		e.metrics.PublishFailed()
		log.WithFields(log.Fields{"job_id": job.ID, "error": err}).Error("Failed to publish job created event")
		return
	}
	log.WithField("job_id", job.ID).Info("Published job created event")
}
