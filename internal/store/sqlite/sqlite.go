// Package sqlite implements store.JobStore on SQLite through database/sql and
// go-sqlite3. Writes use optimistic concurrency on a version column.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dubber/internal/migrate"
	"dubber/internal/models"
	"dubber/internal/store"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

var _ store.JobStore = (*Store)(nil)

// maxUpdateAttempts bounds the compare-and-write retry loop in UpdateJob.
const maxUpdateAttempts = 8

const jobColumns = `id, source_object_key, output_object_key, target_language, options_json,
	status, progress, estimated_time_remaining, activity, created_at, updated_at, version`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("sqlite DSN cannot be empty")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway and this avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping sqlite: %w", err)
	}
	if err := migrate.Up(db, "sqlite"); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() {
	if err := s.db.Close(); err != nil {
		log.WithError(err).Warn("Failed to close sqlite database")
	}
}

func (s *Store) Create(ctx context.Context, job *models.Job) error {
	query := `INSERT INTO jobs (` + jobColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`
	_, err := s.db.ExecContext(ctx, query,
		job.ID.String(),
		job.SourceObjectKey,
		nullString(job.OutputObjectKey),
		job.TargetLanguage,
		job.OptionsJSON,
		string(job.Status),
		job.Progress,
		job.EstimatedTimeRemaining,
		job.Activity,
		job.CreatedAt.UTC(),
		job.UpdatedAt.UTC(),
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return fmt.Errorf("job %s: %w", job.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	job, _, err := s.get(ctx, id)
	return job, err
}

func (s *Store) get(ctx context.Context, id uuid.UUID) (*models.Job, int64, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`
	job, version, err := scanJob(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
		}
		return nil, 0, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, version, nil
}

func (s *Store) ListByStatus(ctx context.Context, statuses []models.JobStatus) ([]*models.Job, error) {
	jobs := make([]*models.Job, 0)
	if len(statuses) == 0 {
		return jobs, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, st := range statuses {
		placeholders[i] = "?"
		args[i] = string(st)
	}
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status IN (` + strings.Join(placeholders, ", ") +
		`) ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		job, _, err := scanJob(rows)
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

// UpdateJob reads the row, runs mutate, and writes back only if the version
// is unchanged. A lost race re-reads and re-runs mutate on the fresh row.
func (s *Store) UpdateJob(ctx context.Context, id uuid.UUID, mutate store.MutateFunc) (*models.Job, error) {
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		current, version, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		changed, err := mutate(current)
		if err != nil {
			return nil, err
		}
		if !changed {
			return current, nil
		}

		res, err := s.db.ExecContext(ctx, `UPDATE jobs SET output_object_key = ?, status = ?, progress = ?,
			estimated_time_remaining = ?, activity = ?, updated_at = ?, version = version + 1
			WHERE id = ? AND version = ?`,
			nullString(current.OutputObjectKey),
			string(current.Status),
			current.Progress,
			current.EstimatedTimeRemaining,
			current.Activity,
			current.UpdatedAt.UTC(),
			id.String(),
			version,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update job %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to update job %s: %w", id, err)
		}
		if n == 1 {
			return current, nil
		}
		log.WithFields(log.Fields{"job_id": id, "attempt": attempt}).Debug("Job version changed during update, retrying")
	}
	return nil, fmt.Errorf("job %s: %w after %d attempts", id, store.ErrConflict, maxUpdateAttempts)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*models.Job, int64, error) {
	var (
		job       models.Job
		id        string
		output    sql.NullString
		status    string
		createdAt time.Time
		updatedAt time.Time
		version   int64
	)
	err := row.Scan(
		&id,
		&job.SourceObjectKey,
		&output,
		&job.TargetLanguage,
		&job.OptionsJSON,
		&status,
		&job.Progress,
		&job.EstimatedTimeRemaining,
		&job.Activity,
		&createdAt,
		&updatedAt,
		&version,
	)
	if err != nil {
		return nil, 0, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid job id %q: %w", id, err)
	}
	job.ID = parsed
	if output.Valid {
		job.OutputObjectKey = &output.String
	}
	job.Status = models.JobStatus(status)
	job.CreatedAt = createdAt.UTC()
	job.UpdatedAt = updatedAt.UTC()
	return &job, version, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
