// Command sandboxd is the HTTP front-end process (§6): it accepts task
// submissions, stages uploaded input files, enqueues jobs onto the
// dispatch queue, and serves task-result polling and output-file
// download. It never talks to the container runtime directly — that is
// cmd/sandbox-worker's job.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/coderunner/sandbox/pkg/config"
	"github.com/coderunner/sandbox/pkg/dispatch"
	"github.com/coderunner/sandbox/pkg/httpapi"
	"github.com/coderunner/sandbox/pkg/objectstore"
	"github.com/coderunner/sandbox/pkg/observability"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("starting sandboxd")

	ctx := context.Background()
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize OpenTelemetry")
	}

	queue, err := dispatch.NewRedisQueue(ctx, cfg.Queue.QueueURL)
	if err != nil {
		log.Fatalf("failed to connect to dispatch queue: %v", err)
	}

	storageIn, storageOut, err := newStores(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize object stores: %v", err)
	}

	server := httpapi.NewServer(queue, storageIn, storageOut, cfg.Storage.StorageIn, cfg.Storage.StorageOut, logger)

	var handler http.Handler = server
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics := observability.NewMetrics(registry)
		handler = observability.HTTPMetricsMiddleware(metrics)(handler)
	}
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(handler, "sandboxd",
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	healthChecker := observability.NewHealthChecker(queue.Client(), nil)
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, healthChecker)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("starting health/metrics server on port %s", cfg.Server.HealthPort)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	shutdownManager := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		return queue.Close()
	})
	if otelProviders != nil {
		shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	go func() {
		logger.Infof("starting sandboxd on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("sandboxd HTTP server failed")
		}
	}()

	if err := shutdownManager.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("shutdown completed with errors")
	}
}

// newStores builds the input/output object stores per SAVING_MODE. Even in
// remote-object-store mode the literal filesystem roots configured in
// cfg.Storage are what the placeholder rewriter addresses and what the
// Container Invoker identity-mounts; no code in this repository copies
// objects between the remote store and that local tree. sandboxd itself
// only needs the Store abstraction to receive uploads and serve downloads.
func newStores(ctx context.Context, cfg *config.Config) (objectstore.Store, objectstore.Store, error) {
	switch cfg.Storage.SavingMode {
	case objectstore.SavingModeRemoteObjectStore:
		in, err := objectstore.NewS3Store(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix+"/in", cfg.Storage.S3Region)
		if err != nil {
			return nil, nil, err
		}
		out, err := objectstore.NewS3Store(ctx, cfg.Storage.S3Bucket, cfg.Storage.S3Prefix+"/out", cfg.Storage.S3Region)
		if err != nil {
			return nil, nil, err
		}
		return in, out, nil
	default:
		in, err := objectstore.NewLocalStore(cfg.Storage.StorageIn)
		if err != nil {
			return nil, nil, err
		}
		out, err := objectstore.NewLocalStore(cfg.Storage.StorageOut)
		if err != nil {
			return nil, nil, err
		}
		return in, out, nil
	}
}
