package config

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Validate checks cross-field rules that defaults cannot guarantee.
func (c *Config) Validate() error {
	// Database config
	switch c.Database.Driver {
	case "memory":
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver %q is not one of postgres, sqlite, memory", c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	// Queue config
	if c.Queue.Name == "" {
		return errors.New("queue.name is required")
	}
	if c.Queue.MaxRetry < 0 {
		return errors.New("queue.max_retry must not be negative")
	}

	// Storage config
	if c.Storage.Enabled {
		if c.Storage.Endpoint == "" {
			return errors.New("storage.endpoint is required when storage.enabled is true")
		}
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required when storage.enabled is true")
		}
	}
	if c.Storage.PresignTTL <= 0 {
		return errors.New("storage.presign_ttl must be positive")
	}

	// Upload config
	if c.Upload.MaxSizeBytes <= 0 {
		return errors.New("upload.max_size_bytes must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return errors.New("upload.allowed_extensions must list at least one extension")
	}

	// Simulation config
	if c.Simulation.Enabled {
		if c.Simulation.Interval <= 0 {
			return errors.New("simulation.interval must be positive")
		}
		if c.Simulation.MinStep <= 0 || c.Simulation.MaxStep < c.Simulation.MinStep {
			return fmt.Errorf("simulation steps must satisfy 0 < min_step (%d) <= max_step (%d)",
				c.Simulation.MinStep, c.Simulation.MaxStep)
		}
	}

	// Reconcile config
	if c.Reconcile.Enabled && (c.Reconcile.Interval <= 0 || c.Reconcile.QueuedAfter <= 0) {
		return errors.New("reconcile.interval and reconcile.queued_after must be positive")
	}

	// Worker config
	if c.Worker.Concurrency <= 0 {
		return errors.New("worker.concurrency must be a positive integer")
	}
	if len(c.Worker.Queues) == 0 {
		return errors.New("worker.queues must define at least one queue")
	}
	for name, priority := range c.Worker.Queues {
		if name == "" {
			return errors.New("worker.queues contains an empty queue name")
		}
		if priority <= 0 {
			return fmt.Errorf("worker.queues priority for queue '%s' must be positive", name)
		}
	}

	// Log config
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}

	return nil
}
