package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Queue         QueueConfig          `koanf:"queue"`
	Worker        WorkerConfig         `koanf:"worker"`
	Ingest        IngestConfig         `koanf:"ingest"`
	Read          ReadConfig           `koanf:"read"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout"`
	WriteTimeout       int      `koanf:"write_timeout"`
	IdleTimeout        int      `koanf:"idle_timeout"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	URL string `koanf:"url" validate:"required"`
}

// QueueConfig controls the durable queue channel and its redelivery policy.
type QueueConfig struct {
	Channel      string `koanf:"channel"`
	LeaseSeconds int    `koanf:"lease_seconds"`
	MaxAttempts  int    `koanf:"max_attempts"`
	PollMillis   int    `koanf:"poll_interval_ms"`
}

type WorkerConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// IngestConfig holds the ingestion endpoint policy. An empty AuthToken
// leaves POST /ingest open for machine-to-machine log shippers.
type IngestConfig struct {
	AuthToken      string `koanf:"auth_token"`
	ValidateSource bool   `koanf:"validate_source"`
}

type ReadConfig struct {
	MaxResults int `koanf:"max_results"`
}

type ObservabilityConfig struct {
	Enabled     bool   `koanf:"enabled"`
	LicenseKey  string `koanf:"license_key"`
	ServiceName string `koanf:"-"`
	Environment string `koanf:"-"`
}

// LoadConfig loads the configuration from environment variables using koanf.
func LoadConfig() (mainConfig *Config, err error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")
	// Nesting uses a double underscore: LOGSTREAM_SERVER__PORT maps to
	// server.port, leaving single underscores free for multi-word keys
	// like cors_allowed_origins.
	err = k.Load(env.Provider("LOGSTREAM_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "LOGSTREAM_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load initial env variables")
	}

	mainConfig = &Config{}
	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal mainconfig")
	}

	validate := validator.New()
	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not validate the struct")
	}

	mainConfig.ApplyDefaults()

	if mainConfig.Observability == nil {
		mainConfig.Observability = &ObservabilityConfig{}
	}
	mainConfig.Observability.ServiceName = "logstream"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	return mainConfig, nil
}

// ApplyDefaults fills zero-valued tunables with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Queue.Channel == "" {
		c.Queue.Channel = "log_queue"
	}
	if c.Queue.LeaseSeconds <= 0 {
		c.Queue.LeaseSeconds = 30
	}
	if c.Queue.MaxAttempts <= 0 {
		c.Queue.MaxAttempts = 5
	}
	if c.Queue.PollMillis <= 0 {
		c.Queue.PollMillis = 500
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 4
	}
	if c.Read.MaxResults <= 0 {
		c.Read.MaxResults = 1000
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = 60
	}
}
