package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics holds OpenTelemetry metric instruments, mirroring the
// Prometheus surface in metrics.go for deployments that export via OTLP
// instead of scraping /metrics.
type OTelMetrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	httpRequestSize     metric.Int64Histogram
	httpResponseSize    metric.Int64Histogram

	// Job metrics
	jobsTotal             metric.Int64Counter
	jobDuration           metric.Float64Histogram
	jobTimeoutsTotal      metric.Int64Counter
	jobLaunchFailuresTotal metric.Int64Counter
	containerRunDuration  metric.Float64Histogram

	// Queue metrics
	queueDepth        metric.Int64UpDownCounter
	queueSubmitsTotal metric.Int64Counter

	// Storage metrics
	storageOperations metric.Int64Counter
	storageDuration   metric.Float64Histogram
	storageBytes      metric.Int64Histogram
}

// NewOTelMetrics creates a new OTel metrics instance.
func NewOTelMetrics() (*OTelMetrics, error) {
	meter := otel.Meter("github.com/coderunner/sandbox")

	m := &OTelMetrics{}
	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http.server.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration histogram: %w", err)
	}

	m.httpRequestSize, err = meter.Int64Histogram(
		"http.server.request.size",
		metric.WithDescription("HTTP request size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_size histogram: %w", err)
	}

	m.httpResponseSize, err = meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("HTTP response size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_response_size histogram: %w", err)
	}

	m.jobsTotal, err = meter.Int64Counter(
		"sandbox.jobs.total",
		metric.WithDescription("Total number of executed jobs"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create jobs_total counter: %w", err)
	}

	m.jobDuration, err = meter.Float64Histogram(
		"sandbox.job.duration",
		metric.WithDescription("End-to-end job duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job_duration histogram: %w", err)
	}

	m.jobTimeoutsTotal, err = meter.Int64Counter(
		"sandbox.job.timeouts",
		metric.WithDescription("Total number of jobs killed for exceeding their timeout"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job_timeouts_total counter: %w", err)
	}

	m.jobLaunchFailuresTotal, err = meter.Int64Counter(
		"sandbox.job.launch_failures",
		metric.WithDescription("Total number of jobs that failed before the container could start"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job_launch_failures_total counter: %w", err)
	}

	m.containerRunDuration, err = meter.Float64Histogram(
		"sandbox.container.run_duration",
		metric.WithDescription("Wall-clock duration of the container invocation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create container_run_duration histogram: %w", err)
	}

	m.queueDepth, err = meter.Int64UpDownCounter(
		"sandbox.queue.depth",
		metric.WithDescription("Number of jobs currently waiting in the dispatch queue"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue_depth gauge: %w", err)
	}

	m.queueSubmitsTotal, err = meter.Int64Counter(
		"sandbox.queue.submits",
		metric.WithDescription("Total number of jobs submitted to the dispatch queue"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue_submits_total counter: %w", err)
	}

	m.storageOperations, err = meter.Int64Counter(
		"storage.operations.total",
		metric.WithDescription("Total number of storage operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage_operations counter: %w", err)
	}

	m.storageDuration, err = meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Storage operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage_duration histogram: %w", err)
	}

	m.storageBytes, err = meter.Int64Histogram(
		"storage.bytes",
		metric.WithDescription("Storage operation bytes transferred"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage_bytes histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request metric.
func (m *OTelMetrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration, requestSize, responseSize int64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if requestSize > 0 {
		m.httpRequestSize.Record(ctx, requestSize, metric.WithAttributes(attrs...))
	}
	if responseSize > 0 {
		m.httpResponseSize.Record(ctx, responseSize, metric.WithAttributes(attrs...))
	}
}

// RecordJob records a completed job's terminal state and duration.
func (m *OTelMetrics) RecordJob(ctx context.Context, language, state string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("language", language),
		attribute.String("state", state),
	}
	m.jobsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("language", language)))
}

// RecordJobTimeout records a job killed for exceeding its timeout.
func (m *OTelMetrics) RecordJobTimeout(ctx context.Context, language string) {
	m.jobTimeoutsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("language", language)))
}

// RecordJobLaunchFailure records a job that failed before the container started.
func (m *OTelMetrics) RecordJobLaunchFailure(ctx context.Context, reason string) {
	m.jobLaunchFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordContainerRun records the wall-clock duration of a container invocation.
func (m *OTelMetrics) RecordContainerRun(ctx context.Context, language string, duration time.Duration) {
	m.containerRunDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("language", language)))
}

// UpdateQueueDepth adjusts the current dispatch queue depth gauge by delta.
func (m *OTelMetrics) UpdateQueueDepth(ctx context.Context, delta int64) {
	m.queueDepth.Add(ctx, delta)
}

// RecordQueueSubmit records a job submission to the dispatch queue.
func (m *OTelMetrics) RecordQueueSubmit(ctx context.Context, kind string) {
	m.queueSubmitsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordStorageOperation records a storage operation metric.
func (m *OTelMetrics) RecordStorageOperation(ctx context.Context, operation, storageType string, duration time.Duration, bytes int64, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("storage.operation", operation),
		attribute.String("storage.type", storageType),
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error", "true"))
	} else {
		attrs = append(attrs, attribute.String("error", "false"))
	}

	m.storageOperations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.storageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if bytes > 0 {
		m.storageBytes.Record(ctx, bytes, metric.WithAttributes(attrs...))
	}
}
