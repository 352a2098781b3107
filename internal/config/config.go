package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DUBBER_DATABASE_DSN.
const EnvPrefix = "DUBBER"

type Config struct {
	Server struct {
		Address string `mapstructure:"address"`
		Port    int    `mapstructure:"port"`
	} `mapstructure:"server"`

	Database struct {
		Driver   string `mapstructure:"driver"` // postgres, sqlite or memory
		DSN      string `mapstructure:"dsn"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	Redis struct {
		Address  string `mapstructure:"address"` // empty disables publishing
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Queue struct {
		Name     string `mapstructure:"name"`
		MaxRetry int    `mapstructure:"max_retry"`
	} `mapstructure:"queue"`

	Storage struct {
		Enabled            bool          `mapstructure:"enabled"`
		Endpoint           string        `mapstructure:"endpoint"`
		AccessKey          string        `mapstructure:"access_key"`
		SecretKey          string        `mapstructure:"secret_key"`
		UseSSL             bool          `mapstructure:"use_ssl"`
		Bucket             string        `mapstructure:"bucket"`
		PresignTTL         time.Duration `mapstructure:"presign_ttl"`
		PlaceholderBaseURL string        `mapstructure:"placeholder_base_url"`
	} `mapstructure:"storage"`

	Upload struct {
		MaxSizeBytes      int64    `mapstructure:"max_size_bytes"`
		AllowedExtensions []string `mapstructure:"allowed_extensions"`
	} `mapstructure:"upload"`

	Lifecycle struct {
		// OutputFallback completes jobs without an output artifact by
		// pointing them at their source object.
		OutputFallback bool `mapstructure:"output_fallback"`
	} `mapstructure:"lifecycle"`

	Simulation struct {
		Enabled  bool          `mapstructure:"enabled"`
		Interval time.Duration `mapstructure:"interval"`
		MinStep  int           `mapstructure:"min_step"`
		MaxStep  int           `mapstructure:"max_step"`
	} `mapstructure:"simulation"`

	Reconcile struct {
		Enabled     bool          `mapstructure:"enabled"`
		Interval    time.Duration `mapstructure:"interval"`
		QueuedAfter time.Duration `mapstructure:"queued_after"`
	} `mapstructure:"reconcile"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // text or json
	} `mapstructure:"log"`
}

// ListenAddr joins the server address and port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("queue.name", "dubber")
	v.SetDefault("queue.max_retry", 5)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "dubber-videos")
	v.SetDefault("storage.presign_ttl", time.Hour)
	v.SetDefault("storage.placeholder_base_url", "http://localhost:8080")

	v.SetDefault("upload.max_size_bytes", int64(5)<<30)
	v.SetDefault("upload.allowed_extensions", []string{"mp4", "avi", "mkv", "mov", "flv", "webm"})

	v.SetDefault("lifecycle.output_fallback", true)

	v.SetDefault("simulation.enabled", false)
	v.SetDefault("simulation.interval", 2*time.Second)
	v.SetDefault("simulation.min_step", 5)
	v.SetDefault("simulation.max_step", 19)

	v.SetDefault("reconcile.enabled", false)
	v.SetDefault("reconcile.interval", time.Minute)
	v.SetDefault("reconcile.queued_after", 5*time.Minute)

	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.queues", map[string]int{"dubber": 1})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads config.yaml from the working directory (or configFile
// when set), then applies DUBBER_* environment overrides.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".") // Look for config.yaml in the current directory
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	return &cfg, nil
}
