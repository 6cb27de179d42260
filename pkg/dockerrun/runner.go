package dockerrun

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	dockerimage "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	units "github.com/docker/go-units"

	"github.com/coderunner/sandbox/pkg/sandbox"
)

// ParseMemoryLimit converts a docker/go-units size string (e.g. "512m",
// "1g") into bytes, the form container.Resources.Memory expects.
func ParseMemoryLimit(size string) (int64, error) {
	return units.RAMInBytes(size)
}

// Runner executes one hardened, single-shot container run per call.
type Runner interface {
	Run(ctx context.Context, req Request) sandbox.RunResult
	Close() error
}

// DockerRunner implements Runner against a local Docker-compatible daemon.
type DockerRunner struct {
	client           *client.Client
	image            string
	imagePulled      bool
	memoryLimitBytes int64
}

// NewDockerRunner connects to the daemon reachable via the environment
// (DOCKER_HOST and friends) and verifies it responds before returning.
// memoryLimitBytes of 0 falls back to defaultMemoryLimitBytes; callers
// derive it from SANDBOX_MEMORY_LIMIT via ParseMemoryLimit.
func NewDockerRunner(image string, memoryLimitBytes int64) (*DockerRunner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeUnavailable, err)
	}

	if memoryLimitBytes <= 0 {
		memoryLimitBytes = defaultMemoryLimitBytes
	}

	return &DockerRunner{client: cli, image: image, memoryLimitBytes: memoryLimitBytes}, nil
}

// Run executes req.Argv inside a hardened container and blocks until
// completion, timeout, or launch failure. It never panics: any unexpected
// failure downgrades to sandbox.ErrInternal so the caller always gets a
// well-formed RunResult.
func (r *DockerRunner) Run(ctx context.Context, req Request) (result sandbox.RunResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = sandbox.RunResult{Error: sandbox.ErrInternal}
		}
	}()

	if err := r.ensureImage(ctx); err != nil {
		return sandbox.RunResult{Error: sandbox.ErrLaunchFailed}
	}

	containerID, err := r.create(ctx, req)
	if err != nil {
		return sandbox.RunResult{Error: sandbox.ErrLaunchFailed}
	}
	defer r.client.ContainerRemove(context.Background(), containerID, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})

	if err := r.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return sandbox.RunResult{Error: sandbox.ErrLaunchFailed}
	}

	runCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	statusCh, errCh := r.client.ContainerWait(runCtx, containerID, container.WaitConditionNotRunning)

	var exitCode int
	var timedOut bool

	select {
	case err := <-errCh:
		if err != nil {
			return sandbox.RunResult{Error: sandbox.ErrLaunchFailed}
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case <-runCtx.Done():
		timedOut = true
		r.client.ContainerKill(context.Background(), containerID, "KILL")
	}

	stdout, stderr := r.collectLogs(containerID)
	stdout = truncate(stdout)
	stderr = truncate(stderr)

	if timedOut {
		return sandbox.RunResult{Stdout: stdout, Stderr: stderr, Error: sandbox.ErrTimeoutExceeded}
	}

	code := exitCode
	return sandbox.RunResult{Stdout: stdout, Stderr: stderr, ReturnCode: &code}
}

func (r *DockerRunner) ensureImage(ctx context.Context) error {
	if r.imagePulled {
		return nil
	}
	if _, _, err := r.client.ImageInspectWithRaw(ctx, r.image); err == nil {
		r.imagePulled = true
		return nil
	}

	pullCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	reader, err := r.client.ImagePull(pullCtx, r.image, dockerimage.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", r.image, err)
	}
	defer reader.Close()
	io.Copy(io.Discard, reader)

	r.imagePulled = true
	return nil
}

func (r *DockerRunner) create(ctx context.Context, req Request) (string, error) {
	binds := make([]string, 0, len(req.ExtraMounts)+1)
	binds = append(binds, req.JobDirHostPath+":"+workingDir+":ro")
	for _, m := range req.ExtraMounts {
		mode := "rw"
		if m.ReadOnly {
			mode = "ro"
		}
		binds = append(binds, fmt.Sprintf("%s:%s:%s", m.HostPath, m.ContainerPath, mode))
	}

	pidsLim := int64(pidsLimit)

	cfg := &container.Config{
		Image:      r.image,
		Cmd:        req.Argv,
		WorkingDir: workingDir,
		User:       containerUser,
	}

	hostCfg := &container.HostConfig{
		Binds:          binds,
		Tmpfs:          map[string]string{"/tmp": fmt.Sprintf("size=%d", tmpfsSizeBytes)},
		NetworkMode:    container.NetworkMode("none"),
		ReadonlyRootfs: true,
		CapDrop:        []string{"ALL"},
		SecurityOpt:    []string{"no-new-privileges"},
		AutoRemove:     false,
		Resources: container.Resources{
			Memory:     r.memoryLimitBytes,
			MemorySwap: r.memoryLimitBytes,
			NanoCPUs:   cpuQuotaNanoCPUs,
			PidsLimit:  &pidsLim,
		},
	}

	resp, err := r.client.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (r *DockerRunner) collectLogs(containerID string) (stdout, stderr string) {
	logs, err := r.client.ContainerLogs(context.Background(), containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", ""
	}
	defer logs.Close()

	var outBuf, errBuf bytes.Buffer
	stdcopy.StdCopy(&outBuf, &errBuf, logs)
	return outBuf.String(), errBuf.String()
}

func truncate(s string) string {
	if len(s) <= sandbox.OutputTruncationCap {
		return s
	}
	return s[:sandbox.OutputTruncationCap] + sandbox.TruncationMarker
}

// Close releases the underlying client connection.
func (r *DockerRunner) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// DockerClient exposes the underlying Docker client, used by callers that
// need it outside the Runner interface (e.g. health checks).
func (r *DockerRunner) DockerClient() *client.Client {
	return r.client
}
