package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"dubber/internal/lifecycle"
	"dubber/internal/metrics"
	"dubber/internal/models"
	"dubber/internal/store"
)

// DefaultPresignTTL is how long download links stay valid.
const DefaultPresignTTL = time.Hour

type JobServiceDeps struct {
	Store      store.JobStore
	Blobs      store.BlobStore
	Events     *EventPublisher
	Engine     *lifecycle.Engine
	Metrics    *metrics.Metrics
	Upload     UploadPolicy
	PresignTTL time.Duration
	Now        func() time.Time // optional; defaults to time.Now
}

// JobService is the single entry point for reading and mutating jobs. All
// status changes, from HTTP, the worker, or the simulator, go through
// ApplyUpdate.
type JobService struct {
	jobs       store.JobStore
	blobs      store.BlobStore
	events     *EventPublisher
	engine     *lifecycle.Engine
	metrics    *metrics.Metrics
	upload     UploadPolicy
	presignTTL time.Duration
	now        func() time.Time
}

func NewJobService(deps JobServiceDeps) *JobService {
	s := &JobService{
		jobs:       deps.Store,
		blobs:      deps.Blobs,
		events:     deps.Events,
		engine:     deps.Engine,
		metrics:    deps.Metrics,
		upload:     deps.Upload,
		presignTTL: deps.PresignTTL,
		now:        deps.Now,
	}
	if s.events == nil {
		s.events = NewEventPublisher(nil, deps.Metrics)
	}
	if s.engine == nil {
		s.engine = lifecycle.New(lifecycle.Policy{OutputFallback: true})
	}
	if s.presignTTL <= 0 {
		s.presignTTL = DefaultPresignTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Create records a new QUEUED job and then announces it. A failed
// announcement is logged; the job is still returned.
func (s *JobService) Create(ctx context.Context, draft models.JobDraft) (*models.Job, error) {
	job, err := models.NewJob(draft, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}
	s.metrics.JobCreated()
	log.WithFields(log.Fields{
		"job_id":          job.ID,
		"source":          job.SourceObjectKey,
		"target_language": job.TargetLanguage,
	}).Info("Job created")

	s.events.PublishJobCreated(ctx, job)
	return job, nil
}

// ValidateUpload applies the configured upload policy.
func (s *JobService) ValidateUpload(params UploadParams) error {
	return s.upload.ValidateUpload(params)
}

// Submit validates an upload, stores the file, and creates its job.
func (s *JobService) Submit(ctx context.Context, params UploadParams) (*models.Job, error) {
	if err := s.ValidateUpload(params); err != nil {
		return nil, err
	}
	if s.blobs == nil {
		return nil, models.DependencyError(models.CodeUploadError, "blob store", errors.New("no blob store configured"))
	}
	key, err := s.blobs.Store(ctx, store.BlobObject{
		Name:        params.FileName,
		ContentType: params.ContentType,
		Size:        params.Size,
		Body:        params.Body,
	})
	if err != nil {
		if models.KindOf(err) == models.KindDependencyUnavailable {
			return nil, err
		}
		return nil, models.DependencyError(models.CodeUploadError, "blob store", err)
	}
	s.metrics.Uploaded(params.Size)

	return s.Create(ctx, models.JobDraft{
		SourceObjectKey: key,
		TargetLanguage:  params.TargetLanguage,
		OptionsJSON:     params.OptionsJSON,
	})
}

// Get returns the job with the given id. Ids that do not parse cannot exist
// and are reported as not found.
func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, models.NotFoundError(id)
	}
	job, err := s.jobs.Get(ctx, uid)
	if err != nil {
		return nil, s.storeError(id, err)
	}
	return job, nil
}

// ListByStatus returns jobs in any of statuses, oldest first.
func (s *JobService) ListByStatus(ctx context.Context, statuses []models.JobStatus) ([]*models.Job, error) {
	if len(statuses) == 0 {
		statuses = models.ActiveStatuses
	}
	jobs, err := s.jobs.ListByStatus(ctx, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// ListActive is the pickup query: jobs QUEUED or PROCESSING.
func (s *JobService) ListActive(ctx context.Context) ([]*models.Job, error) {
	return s.ListByStatus(ctx, models.ActiveStatuses)
}

// ApplyUpdate applies a sparse status report atomically. A stale progress
// report returns the unchanged job without error.
func (s *JobService) ApplyUpdate(ctx context.Context, id string, upd models.JobUpdate) (*models.Job, error) {
	return s.applyUpdate(ctx, id, upd, nil)
}

// Claim applies upd only while the job is still QUEUED. The check runs
// under the store's record lock, so of two concurrent claims at most one
// succeeds; the loser, and any claim arriving after the job has moved on,
// gets an INVALID_TRANSITION error and the record is left as it is.
func (s *JobService) Claim(ctx context.Context, id string, upd models.JobUpdate) (*models.Job, error) {
	return s.applyUpdate(ctx, id, upd, func(current *models.Job) error {
		if current.Status != models.JobStatusQueued {
			return models.InvalidTransitionError(current.Status, requestedStatus(upd),
				fmt.Sprintf("job is %s, not %s", current.Status, models.JobStatusQueued))
		}
		return nil
	})
}

func (s *JobService) applyUpdate(ctx context.Context, id string, upd models.JobUpdate, precondition func(*models.Job) error) (*models.Job, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, models.NotFoundError(id)
	}

	var res lifecycle.Result
	job, err := s.jobs.UpdateJob(ctx, uid, func(current *models.Job) (bool, error) {
		if precondition != nil {
			if err := precondition(current); err != nil {
				return false, err
			}
		}
		r, err := s.engine.Apply(current, upd)
		if err != nil {
			return false, err
		}
		res = r
		if !r.Changed {
			return false, nil
		}
		*current = *r.Job
		return true, nil
	})
	if err != nil {
		err = s.storeError(id, err)
		kind := models.KindOf(err)
		s.metrics.UpdateRejected(kind)
		log.WithFields(log.Fields{"job_id": id, "kind": kind, "error": err}).Warn("Job update rejected")
		return nil, err
	}

	switch {
	case res.Ignored:
		s.metrics.UpdateIgnored()
		log.WithFields(log.Fields{"job_id": id, "progress": job.Progress}).Debug("Ignored stale progress update")
	case res.Transition != nil:
		s.metrics.Transition(string(res.Transition.From), string(res.Transition.To))
		log.WithFields(log.Fields{
			"job_id":   id,
			"from":     res.Transition.From,
			"to":       res.Transition.To,
			"progress": job.Progress,
		}).Info("Job status changed")
	}
	return job, nil
}

// DownloadURL issues a presigned link to the job's output.
func (s *JobService) DownloadURL(ctx context.Context, id string) (string, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if job.OutputObjectKey == nil {
		return "", models.ValidationError(models.CodeOutputNotReady, "Output not ready yet")
	}
	if s.blobs == nil {
		return "", models.DependencyError(models.CodeDownloadError, "blob store", errors.New("no blob store configured"))
	}
	url, err := s.blobs.PresignedURL(ctx, *job.OutputObjectKey, s.presignTTL)
	if err != nil {
		if models.KindOf(err) == models.KindDependencyUnavailable {
			return "", err
		}
		return "", models.DependencyError(models.CodeDownloadError, "blob store", err)
	}
	return url, nil
}

// storeError turns a store-level not-found into the API's structured error.
func (s *JobService) storeError(id string, err error) error {
	var appErr *models.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, models.ErrNotFound) {
		return models.NotFoundError(id)
	}
	return err
}

func requestedStatus(upd models.JobUpdate) string {
	if upd.Status != nil {
		return *upd.Status
	}
	return ""
}
