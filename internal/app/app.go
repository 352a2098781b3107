package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"dubber/internal/config"
	"dubber/internal/lifecycle"
	"dubber/internal/metrics"
	"dubber/internal/services"
	"dubber/internal/store"
	"dubber/internal/store/blob"
	"dubber/internal/store/memory"
	"dubber/internal/store/primary"
	"dubber/internal/store/sqlite"
)

// healthTimeout bounds each dependency probe.
const healthTimeout = 3 * time.Second

type App struct {
	Config  *config.Config
	Metrics *metrics.Metrics

	JobStore  store.JobStore
	BlobStore store.BlobStore
	Publisher store.Publisher
	Redis     *redis.Client // nil when no broker is configured

	Engine     *lifecycle.Engine
	Events     *services.EventPublisher
	JobService *services.JobService
	Simulator  *services.SimulationService
	Reconciler *services.Reconciler
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()
	app := &App{Config: cfg, Metrics: metrics.New()}

	if err := app.initJobStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initPublisher(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	if err := app.initBlobStore(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	app.initServices()

	log.WithFields(log.Fields{
		"database": cfg.Database.Driver,
		"broker":   cfg.Redis.Address != "",
		"storage":  cfg.Storage.Enabled,
	}).Info("Application initialization complete")
	return app, nil
}

// --- Private Helper Methods ---

func (a *App) initJobStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Database.Driver {
	case "postgres":
		ps, err := primary.NewPrimaryStore(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("init postgres job store: %w", err)
		}
		a.JobStore = ps
	case "sqlite":
		ss, err := sqlite.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("init sqlite job store: %w", err)
		}
		a.JobStore = ss
	case "memory", "":
		log.Warn("Using in-memory job store; jobs will not survive a restart")
		a.JobStore = memory.New()
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	return nil
}

func (a *App) initPublisher() error {
	cfg := a.Config
	if cfg.Redis.Address == "" {
		log.Warn("redis.address is empty; job notifications will be dropped")
		a.Publisher = store.NoopPublisher{}
		return nil
	}
	opts := store.RedisOptions{Address: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	pub, err := store.NewAsynqPublisher(opts, cfg.Queue.Name, cfg.Queue.MaxRetry)
	if err != nil {
		return fmt.Errorf("init publisher: %w", err)
	}
	a.Publisher = pub
	a.Redis = redis.NewClient(&redis.Options{Addr: opts.Address, Password: opts.Password, DB: opts.DB})
	return nil
}

func (a *App) initBlobStore() error {
	cfg := a.Config
	if !cfg.Storage.Enabled {
		log.Warn("Object storage disabled; using placeholder keys and URLs")
		a.BlobStore = blob.NewPlaceholderStore(cfg.Storage.PlaceholderBaseURL)
		return nil
	}
	ms, err := blob.NewMinioStore(blob.MinioConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
	})
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}
	a.BlobStore = ms
	return nil
}

func (a *App) initServices() {
	cfg := a.Config
	a.Engine = lifecycle.New(lifecycle.Policy{OutputFallback: cfg.Lifecycle.OutputFallback})
	a.Events = services.NewEventPublisher(a.Publisher, a.Metrics)
	a.JobService = services.NewJobService(services.JobServiceDeps{
		Store:   a.JobStore,
		Blobs:   a.BlobStore,
		Events:  a.Events,
		Engine:  a.Engine,
		Metrics: a.Metrics,
		Upload: services.UploadPolicy{
			MaxSizeBytes:      cfg.Upload.MaxSizeBytes,
			AllowedExtensions: cfg.Upload.AllowedExtensions,
		},
		PresignTTL: cfg.Storage.PresignTTL,
	})
	a.Simulator = services.NewSimulationService(a.JobService, services.SimulationConfig{
		Interval: cfg.Simulation.Interval,
		MinStep:  cfg.Simulation.MinStep,
		MaxStep:  cfg.Simulation.MaxStep,
	})
	a.Reconciler = services.NewReconciler(a.JobService, a.Events, services.ReconcileConfig{
		Interval:    cfg.Reconcile.Interval,
		QueuedAfter: cfg.Reconcile.QueuedAfter,
	})
}

// Health probes every configured dependency.
func (a *App) Health(ctx context.Context) map[string]error {
	checks := map[string]error{}

	dbCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	checks["database"] = a.JobStore.Ping(dbCtx)
	cancel()

	if a.Redis != nil {
		rCtx, cancel := context.WithTimeout(ctx, healthTimeout)
		checks["redis"] = a.Redis.Ping(rCtx).Err()
		cancel()
	}
	if p, ok := a.BlobStore.(interface{ Ping(context.Context) error }); ok {
		sCtx, cancel := context.WithTimeout(ctx, healthTimeout)
		checks["storage"] = p.Ping(sCtx)
		cancel()
	}
	return checks
}

// Close releases every connection the app opened.
func (a *App) Close() {
	a.cleanupPartialInit()
}

func (a *App) cleanupPartialInit() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			log.WithError(err).Warn("Error closing publisher")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Error closing redis client")
		}
	}
	if a.JobStore != nil {
		a.JobStore.Close()
	}
}
