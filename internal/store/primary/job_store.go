package primary

import (
	"context"
	"errors"
	"fmt"

	"dubber/internal/models"
	"dubber/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const jobColumns = `id, source_object_key, output_object_key, target_language, options_json,
	status, progress, estimated_time_remaining, activity, created_at, updated_at`

// Create inserts a new job row.
func (s *StoreImpl) Create(ctx context.Context, job *models.Job) error {
	query := `INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.db.Exec(ctx, query,
		job.ID,
		job.SourceObjectKey,
		job.OutputObjectKey,
		job.TargetLanguage,
		job.OptionsJSON,
		string(job.Status),
		job.Progress,
		job.EstimatedTimeRemaining,
		job.Activity,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("job %s: %w", job.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	return nil
}

// Get retrieves a job by id.
func (s *StoreImpl) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

// ListByStatus returns jobs in any of the given statuses, oldest first.
// Served by idx_jobs_status.
func (s *StoreImpl) ListByStatus(ctx context.Context, statuses []models.JobStatus) ([]*models.Job, error) {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = ANY($1) ORDER BY created_at ASC, id ASC`
	rows, err := s.db.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by status: %w", err)
	}
	defer rows.Close()

	jobs := make([]*models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return jobs, nil
}

// UpdateJob locks the row with SELECT ... FOR UPDATE, runs mutate, and writes
// the result in the same transaction.
func (s *StoreImpl) UpdateJob(ctx context.Context, id uuid.UUID, mutate store.MutateFunc) (*models.Job, error) {
	var result *models.Job
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`
		current, err := scanJob(tx.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("job %s: %w", id, store.ErrNotFound)
			}
			return fmt.Errorf("failed to lock job %s: %w", id, err)
		}

		changed, err := mutate(current)
		if err != nil {
			return err
		}
		result = current
		if !changed {
			return nil
		}

		update := `UPDATE jobs SET output_object_key = $2, status = $3, progress = $4,
			estimated_time_remaining = $5, activity = $6, updated_at = $7 WHERE id = $1`
		if _, err := tx.Exec(ctx, update,
			id,
			current.OutputObjectKey,
			string(current.Status),
			current.Progress,
			current.EstimatedTimeRemaining,
			current.Activity,
			current.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to update job %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var (
		job    models.Job
		status string
	)
	err := row.Scan(
		&job.ID,
		&job.SourceObjectKey,
		&job.OutputObjectKey,
		&job.TargetLanguage,
		&job.OptionsJSON,
		&status,
		&job.Progress,
		&job.EstimatedTimeRemaining,
		&job.Activity,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Status = models.JobStatus(status)
	job.CreatedAt = job.CreatedAt.UTC()
	job.UpdatedAt = job.UpdatedAt.UTC()
	return &job, nil
}
