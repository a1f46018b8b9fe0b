// Package config provides configuration structures and validation for the
// reconciliation services. It handles environment-based configuration for the
// API server, the run worker, databases, messaging, and the matching engine's
// tuning knobs.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all
// components. Each field represents a major subsystem's configuration and is
// validated during application startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Engine      EngineConfig
	Scoring     ScoringConfig
	Retry       RetryConfig
	WorkerPool  WorkerPoolConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	RunTopic          string // Topic carrying reconciliation run requests
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for poisoned run messages
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration for the run report store
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// EngineConfig contains the matching pipeline tuning knobs
type EngineConfig struct {
	DateWindowDays      int     // AmountAndDate tolerance window (± calendar days)
	TieEpsilon          float64 // confidence margin treated as a tie
	MaxSplitItems       int     // split search item bound
	SplitCandidateCap   int     // split search candidate set cap
	SplitToleranceMinor int64   // split rounding tolerance in minor units
	AutoAcceptScore     float64 // suggestion auto-accept threshold (Automatic method)
	MinSuggestionScore  float64 // suggestion floor
	FeeKeywords         []string
}

// ScoringConfig contains the optional ML scoring collaborator settings
type ScoringConfig struct {
	URL     string // empty disables the suggestion pass
	Timeout time.Duration
}

// RetryConfig bounds the exponential backoff applied at store-call boundaries
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of concurrently executing runs
}

// validate performs comprehensive validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.RunTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_RUN_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate Engine config
	if c.Engine.DateWindowDays < 0 {
		validationErrors = append(validationErrors, "ENGINE_DATE_WINDOW_DAYS must not be negative")
	}
	if c.Engine.TieEpsilon < 0 || c.Engine.TieEpsilon >= 1 {
		validationErrors = append(validationErrors, "ENGINE_TIE_EPSILON must be within [0,1)")
	}
	if c.Engine.MaxSplitItems < 2 {
		validationErrors = append(validationErrors, "ENGINE_MAX_SPLIT_ITEMS must be at least 2")
	}
	if c.Engine.SplitCandidateCap <= 0 {
		validationErrors = append(validationErrors, "ENGINE_SPLIT_CANDIDATE_CAP must be greater than 0")
	}
	if c.Engine.SplitToleranceMinor < 0 {
		validationErrors = append(validationErrors, "ENGINE_SPLIT_TOLERANCE_MINOR must not be negative")
	}
	if c.Engine.AutoAcceptScore <= 0 || c.Engine.AutoAcceptScore > 1 {
		validationErrors = append(validationErrors, "ENGINE_AUTO_ACCEPT_SCORE must be within (0,1]")
	}
	if c.Engine.MinSuggestionScore < 0 || c.Engine.MinSuggestionScore > 1 {
		validationErrors = append(validationErrors, "ENGINE_MIN_SUGGESTION_SCORE must be within [0,1]")
	}

	// Validate Scoring config (URL optional; timeout required when set)
	if c.Scoring.URL != "" && c.Scoring.Timeout <= 0 {
		validationErrors = append(validationErrors, "SCORING_TIMEOUT must be greater than 0 when SCORING_URL is set")
	}

	// Validate Retry config
	if c.Retry.MaxAttempts <= 0 {
		validationErrors = append(validationErrors, "RETRY_MAX_ATTEMPTS must be greater than 0")
	}
	if c.Retry.BaseDelay <= 0 {
		validationErrors = append(validationErrors, "RETRY_BASE_DELAY must be greater than 0")
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		validationErrors = append(validationErrors, "RETRY_MAX_DELAY must not be smaller than RETRY_BASE_DELAY")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
