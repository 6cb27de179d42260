// Command sandbox-worker is the worker process named in §5: it polls the
// dispatch queue in a loop, runs each job through the Job Coordinator, and
// publishes the TaskResult back to the result store. A background janitor
// schedule reclaims JobDirs orphaned by a worker crash mid-execution.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coderunner/sandbox/pkg/config"
	"github.com/coderunner/sandbox/pkg/coordinator"
	"github.com/coderunner/sandbox/pkg/dispatch"
	"github.com/coderunner/sandbox/pkg/dockerrun"
	"github.com/coderunner/sandbox/pkg/janitor"
	"github.com/coderunner/sandbox/pkg/observability"
	"github.com/coderunner/sandbox/pkg/sandbox"
)

// fetchTimeout bounds each poll of the dispatch queue so the worker loop
// can still observe ctx cancellation promptly on shutdown.
const fetchTimeout = 5 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("starting sandbox-worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := dispatch.NewRedisQueue(ctx, cfg.Queue.QueueURL)
	if err != nil {
		log.Fatalf("failed to connect to dispatch queue: %v", err)
	}
	defer queue.Close()

	memoryLimitBytes, err := dockerrun.ParseMemoryLimit(cfg.Queue.MemoryLimit)
	if err != nil {
		log.Fatalf("invalid SANDBOX_MEMORY_LIMIT %q: %v", cfg.Queue.MemoryLimit, err)
	}

	runner, err := dockerrun.NewDockerRunner(cfg.Queue.ContainerImage, memoryLimitBytes)
	if err != nil {
		log.Fatalf("failed to connect to container runtime: %v", err)
	}
	defer runner.Close()

	var registry *prometheus.Registry
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	coordCfg := &coordinator.Config{
		BaseDir:        cfg.Storage.BaseDir,
		StorageIn:      cfg.Storage.StorageIn,
		StorageOut:     cfg.Storage.StorageOut,
		ContainerImage: cfg.Queue.ContainerImage,
		Timeout:        cfg.Queue.JobTimeout,
	}
	coord := coordinator.New(coordCfg, runner, logger, metrics)

	sweeper := janitor.NewSweeper(cfg.Storage.BaseDir, cfg.Observability.JanitorInterval*3, logger, metrics)
	scheduler := janitor.NewScheduler(sweeper, cfg.Observability.JanitorInterval)
	scheduler.Start()
	defer scheduler.Stop()

	healthChecker := observability.NewHealthChecker(queue.Client(), runner.DockerClient())
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, healthChecker)
	if registry != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{Addr: ":" + cfg.Server.HealthPort, Handler: healthMux}
	go func() {
		logger.Infof("starting worker health/metrics server on port %s", cfg.Server.HealthPort)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("worker health server failed")
		}
	}()

	logger.Info("sandbox-worker ready, polling dispatch queue")
	runLoop(ctx, queue, coord, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	healthServer.Shutdown(shutdownCtx)
	logger.Info("sandbox-worker stopped")
}

// runLoop fetches and executes jobs until ctx is canceled. Each job is
// processed to completion (cleanup always runs inside the coordinator)
// before the next Fetch; the worker hosts one execution slot.
func runLoop(ctx context.Context, queue dispatch.Queue, coord *coordinator.Coordinator, logger *observability.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := queue.Fetch(ctx, fetchTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithError(err).Warn("failed to fetch job from dispatch queue")
			continue
		}
		if job == nil {
			continue
		}

		queue.SetState(ctx, job.ID, dispatch.StateRunning)
		logger.WithField("job_id", job.ID.String()).WithField("language", job.LanguageLabel).Info("running job")

		result := runJob(ctx, coord, job, logger)

		if err := queue.PutResult(ctx, job.ID, result); err != nil {
			logger.WithField("job_id", job.ID.String()).WithError(err).Error("failed to publish job result")
		}
	}
}

// runJob executes one job through the coordinator, recovering a panic in
// staging or coordination so it costs this job rather than the worker
// slot: the coordinator has no recover of its own; only the container
// runner recovers panics raised inside it.
func runJob(ctx context.Context, coord *coordinator.Coordinator, job *dispatch.Job, logger *observability.Logger) (result sandbox.TaskResult) {
	defer observability.RecoverPanicWithCallback(logger, "job "+job.ID.String(), func() {
		result = sandbox.TaskResult{RunResult: sandbox.RunResult{Error: sandbox.ErrInternal}}
	})

	if job.WithFiles {
		return coord.RunCodeWithFiles(ctx, job.ID, job.LanguageLabel, job.SourceCode)
	}
	return coord.RunCode(ctx, job.ID, job.LanguageLabel, job.SourceCode)
}
