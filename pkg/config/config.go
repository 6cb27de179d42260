// Package config loads the sandbox service's environment-derived
// configuration: storage roots and mode, the queue/result-store URL, the
// HTTP server's bind address, and observability settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coderunner/sandbox/pkg/objectstore"
	"github.com/coderunner/sandbox/pkg/observability"
	"github.com/coderunner/sandbox/pkg/sandbox"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage StorageConfig

	// Queue and worker configuration
	Queue QueueConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// StorageConfig holds STORAGE_IN/STORAGE_OUT/BASE_DIR, which are always
// local paths, and the SAVING_MODE selecting whether uploads and downloads go
// through those local roots or a remote object store (§6).
type StorageConfig struct {
	BaseDir    string
	StorageIn  string
	StorageOut string
	SavingMode objectstore.SavingMode

	S3Bucket string
	S3Prefix string
	S3Region string
}

// QueueConfig holds the job-dispatch queue, result store, and per-job
// execution settings.
type QueueConfig struct {
	QueueURL       string
	ResultStoreURL string
	ContainerImage string
	JobTimeout     time.Duration

	// MemoryLimit is a docker/go-units size string (e.g. "512m") bounding
	// each container run; parsed by cmd/sandbox-worker, not here, since
	// go-units lives alongside the Container Invoker that consumes it.
	MemoryLimit string
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection

	// JanitorInterval governs how often the orphaned-JobDir cleanup sweep
	// runs; see cmd/sandbox-worker.
	JanitorInterval time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Queue:         loadQueueConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment.
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("SANDBOX_HOST", "0.0.0.0"),
		Port:            getEnv("SANDBOX_PORT", "8080"),
		ReadTimeout:     getEnvDuration("SANDBOX_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("SANDBOX_WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getEnvDuration("SANDBOX_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("SANDBOX_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment.
func loadStorageConfig() StorageConfig {
	base := getEnv("BASE_DIR", "/var/lib/sandbox")
	return StorageConfig{
		BaseDir:    base,
		StorageIn:  getEnv("STORAGE_IN", base+"/storage-in"),
		StorageOut: getEnv("STORAGE_OUT", base+"/storage-out"),
		SavingMode: objectstore.SavingMode(getEnv("SAVING_MODE", string(objectstore.SavingModeLocal))),
		S3Bucket:   getEnv("SANDBOX_S3_BUCKET", ""),
		S3Prefix:   getEnv("SANDBOX_S3_PREFIX", ""),
		S3Region:   getEnv("SANDBOX_S3_REGION", "us-east-1"),
	}
}

// loadQueueConfig loads job-dispatch configuration from environment.
func loadQueueConfig() QueueConfig {
	return QueueConfig{
		QueueURL:       getEnv("QUEUE_URL", "redis://localhost:6379/0"),
		ResultStoreURL: getEnv("RESULT_STORE_URL", getEnv("QUEUE_URL", "redis://localhost:6379/0")),
		ContainerImage: getEnv("SANDBOX_CONTAINER_IMAGE", "sandbox-runtime:latest"),
		JobTimeout:     getEnvDuration("SANDBOX_JOB_TIMEOUT", sandbox.DefaultTimeoutSeconds*time.Second),
		MemoryLimit:    getEnv("SANDBOX_MEMORY_LIMIT", "512m"),
	}
}

// loadObservabilityConfig loads observability configuration from environment.
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("SANDBOX_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("SANDBOX_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("SANDBOX_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("SANDBOX_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("SANDBOX_OTEL_SERVICE_NAME", "sandbox"),
		OTelServiceVersion: getEnv("SANDBOX_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("SANDBOX_OTEL_INSECURE", true),
		JanitorInterval:    getEnvDuration("SANDBOX_JANITOR_INTERVAL", 5*time.Minute),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Storage.SavingMode {
	case objectstore.SavingModeLocal, objectstore.SavingModeRemoteObjectStore:
	default:
		return fmt.Errorf("SAVING_MODE must be %q or %q, got %q",
			objectstore.SavingModeLocal, objectstore.SavingModeRemoteObjectStore, c.Storage.SavingMode)
	}
	if c.Storage.SavingMode == objectstore.SavingModeRemoteObjectStore && c.Storage.S3Bucket == "" {
		return fmt.Errorf("SANDBOX_S3_BUCKET is required when SAVING_MODE=%s", objectstore.SavingModeRemoteObjectStore)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string.
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	return int(getEnvInt64(key, int64(defaultValue)))
}

// getEnvInt64 returns a 64-bit integer environment variable or a default.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}
