package services

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"dubber/internal/models"
)

// ReconcileConfig controls how often and how aggressively QUEUED jobs are
// re-announced.
type ReconcileConfig struct {
	Interval    time.Duration
	QueuedAfter time.Duration
}

// Reconciler republishes job.created for jobs that have sat QUEUED longer
// than QueuedAfter, covering notifications lost between create and publish.
// Workers treat duplicates as no-ops.
type Reconciler struct {
	jobs   *JobService
	events *EventPublisher
	cfg    ReconcileConfig
	now    func() time.Time
}

func NewReconciler(jobs *JobService, events *EventPublisher, cfg ReconcileConfig) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.QueuedAfter <= 0 {
		cfg.QueuedAfter = 5 * time.Minute
	}
	return &Reconciler{jobs: jobs, events: events, cfg: cfg, now: time.Now}
}

// WithClock replaces the time source.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Start runs until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	log.WithFields(log.Fields{"interval": r.cfg.Interval, "queued_after": r.cfg.QueuedAfter}).Info("Starting queue reconciler")
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if _, err := r.RunOnce(ctx); err != nil {
			log.WithError(err).Error("Reconciliation pass failed")
		}
	}
}

// RunOnce republishes every stale QUEUED job and returns how many were sent.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	queued, err := r.jobs.ListByStatus(ctx, []models.JobStatus{models.JobStatusQueued})
	if err != nil {
		return 0, err
	}
	cutoff := r.now().Add(-r.cfg.QueuedAfter)
	sent := 0
	for _, job := range queued {
		if job.UpdatedAt.After(cutoff) {
			continue
		}
		if err := r.events.Publish(ctx, job); err != nil {
			r.events.metrics.PublishFailed()
			log.WithFields(log.Fields{"job_id": job.ID, "error": err}).Error("Failed to republish queued job")
			continue
		}
		sent++
		log.WithFields(log.Fields{"job_id": job.ID, "queued_since": job.UpdatedAt}).Info("Republished stale queued job")
	}
	return sent, nil
}
