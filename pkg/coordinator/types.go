// Package coordinator implements the Job Coordinator: it composes the
// language registry, placeholder rewriter, job staging, and container
// invoker into the two supported job shapes and guarantees JobDir cleanup
// regardless of outcome.
package coordinator

import (
	"time"

	"github.com/coderunner/sandbox/pkg/sandbox"
)

// Config holds the coordinator's environment-derived settings.
type Config struct {
	BaseDir       string
	StorageIn     string
	StorageOut    string
	ContainerImage string
	Timeout       time.Duration
}

// DefaultConfig returns sane defaults for local development; production
// deployments override every field from the environment.
func DefaultConfig() *Config {
	return &Config{
		BaseDir:        "/var/lib/sandbox",
		StorageIn:      "/var/lib/sandbox/storage-in",
		StorageOut:     "/var/lib/sandbox/storage-out",
		ContainerImage: "sandbox-runtime:latest",
		Timeout:        sandbox.DefaultTimeoutSeconds * time.Second,
	}
}
