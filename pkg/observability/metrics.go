package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec
	StorageErrorsTotal       *prometheus.CounterVec

	// Job execution metrics
	JobsTotal            *prometheus.CounterVec
	JobDuration          *prometheus.HistogramVec
	JobTimeoutsTotal      *prometheus.CounterVec
	JobLaunchFailuresTotal *prometheus.CounterVec
	ContainerRunDuration  *prometheus.HistogramVec

	// Queue metrics
	QueueDepth        prometheus.Gauge
	QueueSubmitsTotal *prometheus.CounterVec

	// Janitor metrics
	JanitorSweepsTotal        prometheus.Counter
	JanitorOrphansRemovedTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandbox_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandbox_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandbox_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_storage_operations_total",
				Help: "Total number of storage operations",
			},
			[]string{"operation", "backend", "status"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandbox_storage_operation_duration_seconds",
				Help:    "Storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),
		StorageErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_storage_errors_total",
				Help: "Total number of storage errors",
			},
			[]string{"operation", "backend", "error_type"},
		),

		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_jobs_total",
				Help: "Total number of executed jobs by language and terminal state",
			},
			[]string{"language", "state"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandbox_job_duration_seconds",
				Help:    "End-to-end job duration from dequeue to result, in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"language"},
		),
		JobTimeoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_job_timeouts_total",
				Help: "Total number of jobs killed for exceeding their timeout",
			},
			[]string{"language"},
		),
		JobLaunchFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_job_launch_failures_total",
				Help: "Total number of jobs that failed before the container could start",
			},
			[]string{"reason"},
		),
		ContainerRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sandbox_container_run_duration_seconds",
				Help:    "Wall-clock duration of the container invocation itself",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"language"},
		),

		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sandbox_queue_depth",
				Help: "Number of jobs currently waiting in the dispatch queue",
			},
		),
		QueueSubmitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_queue_submits_total",
				Help: "Total number of jobs submitted to the dispatch queue",
			},
			[]string{"kind"},
		),

		JanitorSweepsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sandbox_janitor_sweeps_total",
				Help: "Total number of orphaned-job-directory sweeps performed",
			},
		),
		JanitorOrphansRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sandbox_janitor_orphans_removed_total",
				Help: "Total number of orphaned job directories removed by the janitor",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestSize,
		m.HTTPResponseSize,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.StorageErrorsTotal,
		m.JobsTotal,
		m.JobDuration,
		m.JobTimeoutsTotal,
		m.JobLaunchFailuresTotal,
		m.ContainerRunDuration,
		m.QueueDepth,
		m.QueueSubmitsTotal,
		m.JanitorSweepsTotal,
		m.JanitorOrphansRemovedTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			if r.ContentLength > 0 {
				metrics.HTTPRequestSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(r.ContentLength))
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint.
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
