// Package dockerrun is the Container Invoker: it assembles and executes a
// hardened, single-shot container run for one job's argv, enforces the
// resource and capability budget unconditionally, and normalizes every exit
// path into a sandbox.RunResult.
package dockerrun

import "time"

// Mount is one extra bind mount layered on top of the invoker's mandatory
// JobDir and tmpfs mounts. Used for Shape B's identity mounts: the per-job
// input directory read-only and the per-job output directory read-write, both
// at the same absolute path inside the container as on the host.
type Mount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// Request is one invocation of the hardened container.
type Request struct {
	JobDirHostPath string
	ExtraMounts    []Mount
	Argv           []string
	Timeout        time.Duration
}

// Runtime constraints mandated for every container run, regardless of
// caller input. These are never relaxed per-request. defaultMemoryLimitBytes
// is the fallback when a runner is constructed without an explicit size;
// callers ordinarily override it via NewDockerRunner's memoryLimitBytes
// parameter, parsed from SANDBOX_MEMORY_LIMIT with docker/go-units.
const (
	cpuQuotaNanoCPUs        = 1_000_000_000 // 1.0 virtual CPU
	defaultMemoryLimitBytes = 512 * 1024 * 1024
	pidsLimit               = 100
	tmpfsSizeBytes          = 64 * 1024 * 1024
	containerUser           = "1000:1000"
	workingDir              = "/sandbox"
)
