// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	SANDBOX_HOST="0.0.0.0"
//	SANDBOX_PORT="8080"
//	SANDBOX_HEALTH_PORT="9090"
//	SANDBOX_READ_TIMEOUT="15s"
//	SANDBOX_WRITE_TIMEOUT="15s"
//	SANDBOX_SHUTDOWN_TIMEOUT="30s"
//
// Storage settings:
//
//	BASE_DIR="/var/lib/sandbox"
//	STORAGE_IN="/var/lib/sandbox/storage-in"
//	STORAGE_OUT="/var/lib/sandbox/storage-out"
//	SAVING_MODE="local"  # local, remote-object-store
//	SANDBOX_S3_BUCKET=""
//	SANDBOX_S3_PREFIX=""
//	SANDBOX_S3_REGION="us-east-1"
//
// Queue/result-store settings:
//
//	QUEUE_URL="redis://localhost:6379/0"
//	RESULT_STORE_URL="redis://localhost:6379/0"
//	SANDBOX_CONTAINER_IMAGE="sandbox-runtime:latest"
//	SANDBOX_JOB_TIMEOUT="30s"
//	SANDBOX_MEMORY_LIMIT="512m"  # docker/go-units size string
//
// Observability settings:
//
//	SANDBOX_LOG_LEVEL="info"  # debug, info, warn, error
//	SANDBOX_METRICS_ENABLED="true"
//	SANDBOX_OTEL_ENABLED="false"
//	SANDBOX_OTEL_ENDPOINT="localhost:4317"
//	SANDBOX_JANITOR_INTERVAL="5m"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Storage mode: %s\n", cfg.Storage.SavingMode)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/objectstore: uses the storage configuration
//   - pkg/observability: uses the observability configuration
package config
