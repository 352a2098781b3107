package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"dubber/internal/models"
)

// SimulationConfig controls the offline progress simulator.
type SimulationConfig struct {
	Interval time.Duration
	MinStep  int
	MaxStep  int
}

// SimulationService advances every active job by a random step on each tick.
// It stands in for real workers when none are running and submits its
// reports through JobService.ApplyUpdate like any other worker.
type SimulationService struct {
	jobs *JobService
	cfg  SimulationConfig

	mu   sync.Mutex
	intn func(n int) int
}

func NewSimulationService(jobs *JobService, cfg SimulationConfig) *SimulationService {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.MinStep <= 0 {
		cfg.MinStep = 5
	}
	if cfg.MaxStep < cfg.MinStep {
		cfg.MaxStep = cfg.MinStep
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &SimulationService{jobs: jobs, cfg: cfg, intn: rng.Intn}
}

// WithRand replaces the random source. intn must behave like rand.Intn.
func (s *SimulationService) WithRand(intn func(n int) int) *SimulationService {
	s.mu.Lock()
	s.intn = intn
	s.mu.Unlock()
	return s
}

// Start runs until ctx is cancelled.
func (s *SimulationService) Start(ctx context.Context) {
	log.WithField("interval", s.cfg.Interval).Info("Starting progress simulator")
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Progress simulator stopped")
			return
		case <-ticker.C:
		}
		s.Tick(ctx)
	}
}

// Tick advances each active job once and returns how many updates were
// accepted. A failure on one job does not stop the others.
func (s *SimulationService) Tick(ctx context.Context) int {
	active, err := s.jobs.ListActive(ctx)
	if err != nil {
		log.WithError(err).Error("Simulator failed to list active jobs")
		return 0
	}

	applied := 0
	for _, job := range active {
		if ctx.Err() != nil {
			break
		}
		next := job.Progress + s.step()
		if next > 100 {
			next = 100
		}
		upd := models.JobUpdate{
			Progress:               models.IntPtr(next),
			Activity:               models.StringPtr(simulatedActivity(next)),
			EstimatedTimeRemaining: models.StringPtr(s.estimate(next)),
		}
		if _, err := s.jobs.ApplyUpdate(ctx, job.ID.String(), upd); err != nil {
			log.WithFields(log.Fields{"job_id": job.ID, "error": err}).Warn("Simulator update failed")
			continue
		}
		applied++
	}
	return applied
}

func (s *SimulationService) step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.MinStep + s.intn(s.cfg.MaxStep-s.cfg.MinStep+1)
}

// estimate projects the remaining ticks at the mean step size.
func (s *SimulationService) estimate(progress int) string {
	if progress >= 100 {
		return "0s"
	}
	mean := float64(s.cfg.MinStep+s.cfg.MaxStep) / 2
	ticks := float64(100-progress) / mean
	remaining := time.Duration(ticks * float64(s.cfg.Interval)).Round(time.Second)
	return fmt.Sprint(remaining)
}

func simulatedActivity(progress int) string {
	switch {
	case progress >= 100:
		return "Done!"
	case progress >= 95:
		return "Uploading final movie..."
	case progress >= 85:
		return "Merging audio with video..."
	case progress >= 30:
		return "Dubbing segments..."
	case progress >= 10:
		return "Transcribing speech..."
	default:
		return "Extracting audio..."
	}
}
