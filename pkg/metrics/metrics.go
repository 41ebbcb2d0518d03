package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry holds every metric exposed on /api/metrics
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	// Custom histogram buckets optimized for API response times ranging from milliseconds to 30+ seconds.
	// argon2 verification sits around 50-100ms, so the low buckets matter for login.
	CustomAPIBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21, 34, 55}

	// HTTP Metrics
	HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	HTTPRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_server_request_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"http_request_method", "http_route", "http_response_status_code"},
	)

	ActiveRequests = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_server_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"http_request_method"},
	)

	// Database Client Metrics
	DBRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_client_operation_duration_seconds",
			Help:    "Database client operation duration in seconds",
			Buckets: CustomAPIBuckets,
		},
		[]string{"operation", "status"},
	)

	DBRequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_client_operation_total",
			Help: "Total number of database client operations",
		},
		[]string{"operation", "status"},
	)

	// Cache Metrics
	CacheSize = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Number of entries in cache",
		},
		[]string{"cache_name"},
	)

	// Auth Metrics
	AuthLoginRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authmodule_login_requests_total",
			Help: "Total password login attempts by outcome",
		},
		[]string{"status"},
	)

	AuthLoginDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "authmodule_login_duration_seconds",
			Help:    "Duration of successful password logins",
			Buckets: CustomAPIBuckets,
		},
	)

	AuthLockouts = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "authmodule_login_lockouts_total",
			Help: "Total number of accounts locked after repeated failures",
		},
	)

	UserRegistrations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authmodule_user_registrations_total",
			Help: "Total registration attempts by outcome",
		},
		[]string{"status"},
	)

	// Login Screen Metrics
	LoginScreensActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "authmodule_login_screens_active",
			Help: "Number of live login screen controllers",
		},
	)

	LoginScreenSubmissions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authmodule_login_screen_submissions_total",
			Help: "Login submissions made from a login screen by phase",
		},
		[]string{"phase"},
	)

	RemoteScreenConnections = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authmodule_remote_screen_connections_total",
			Help: "Websocket login screen connections by outcome",
		},
		[]string{"status"},
	)

	// Infrastructure Metrics
	GoRoutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_goroutines",
			Help: "Number of goroutines",
		},
	)

	HeapAlloc = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_runtime_go_mem_heap_alloc_bytes",
			Help: "Heap allocated bytes",
		},
	)

	serviceInfo = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "authmodule_service_info",
			Help: "Static service information",
		},
		[]string{"service_name"},
	)
)

// Init registers the runtime collectors and the service info series
func Init(serviceName string) {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	serviceInfo.WithLabelValues(serviceName).Set(1)
}

// RecordInfrastructureMetrics collects infrastructure metrics periodically
func RecordInfrastructureMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		for range ticker.C {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			GoRoutines.Set(float64(runtime.NumGoroutine()))
			HeapAlloc.Set(float64(m.HeapAlloc))
		}
	}()
}

// MeasureDuration measures the duration of an operation
func MeasureDuration(start time.Time) float64 {
	return time.Since(start).Seconds()
}
