package store

import (
	"context"
	"io"
	"time"

	"dubber/internal/models"

	"github.com/google/uuid"
)

// --- Job Store ---

// MutateFunc edits a job in place while the store holds it. Returning false
// tells the store there is nothing to write; returning an error aborts the
// update and leaves the stored record untouched.
type MutateFunc func(job *models.Job) (bool, error)

type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	// ListByStatus returns jobs whose status is in statuses, oldest first.
	ListByStatus(ctx context.Context, statuses []models.JobStatus) ([]*models.Job, error)
	// UpdateJob performs an atomic read-modify-write of one job.
	UpdateJob(ctx context.Context, id uuid.UUID, mutate MutateFunc) (*models.Job, error)

	Ping(ctx context.Context) error
	Close()
}

// --- Blob Store ---

// BlobObject is an upload on its way to object storage.
type BlobObject struct {
	Name        string // original file name, used to derive the key
	ContentType string
	Size        int64
	Body        io.Reader
}

type BlobStore interface {
	Store(ctx context.Context, obj BlobObject) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// --- Publisher ---

type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}
