// Package memory provides a JobStore kept entirely in process memory.
// It backs the default configuration and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"dubber/internal/models"
	"dubber/internal/store"

	"github.com/google/uuid"
)

var _ store.JobStore = (*Store)(nil)

type entry struct {
	mu  sync.Mutex // serialises UpdateJob on this job
	job *models.Job
}

// Store keeps jobs in a map. The map lock is only held to find an entry;
// per-job writes lock the entry so different jobs update in parallel.
type Store struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*entry
}

func New() *Store {
	return &Store{jobs: make(map[uuid.UUID]*entry)}
}

func (s *Store) Create(_ context.Context, job *models.Job) error {
	if job == nil {
		return fmt.Errorf("memory store: nil job")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("job %s: %w", job.ID, store.ErrDuplicate)
	}
	s.jobs[job.ID] = &entry{job: job.Clone()}
	return nil
}

func (s *Store) lookup(id uuid.UUID) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.jobs[id]
	return e, ok
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*models.Job, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job.Clone(), nil
}

func (s *Store) ListByStatus(_ context.Context, statuses []models.JobStatus) ([]*models.Job, error) {
	want := make(map[models.JobStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	s.mu.RLock()
	entries := make([]*entry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*models.Job, 0)
	for _, e := range entries {
		e.mu.Lock()
		if want[e.job.Status] {
			out = append(out, e.job.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateJob(_ context.Context, id uuid.UUID, mutate store.MutateFunc) (*models.Job, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, fmt.Errorf("job %s: %w", id, store.ErrNotFound)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	working := e.job.Clone()
	changed, err := mutate(working)
	if err != nil {
		return nil, err
	}
	if changed {
		e.job = working.Clone()
	}
	return e.job.Clone(), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}
