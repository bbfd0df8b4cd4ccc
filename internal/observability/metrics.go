package observability

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/neurobridge-frameworks/internal/platform/envutil"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

const metricsNamespace = "fw"

// Metrics holds the API and importer collectors on a private registry. Every method
// is a no-op on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	importRuns     *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	importNodes    *prometheus.CounterVec
	graphSync      *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics. It returns nil when METRICS_ENABLED is off.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		if log != nil {
			log.Info("metrics enabled")
		}
	})
	return instance
}

var (
	apiBuckets    = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	importBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300}
)

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "api_requests_total",
			Help:      "API requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds.",
			Buckets:   apiBuckets,
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "api_inflight_requests",
			Help:      "API requests currently being served.",
		}),
		importRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "import_runs_total",
			Help:      "Framework import runs by profile and status.",
		}, []string{"profile", "status"}),
		importDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "import_duration_seconds",
			Help:      "Framework import duration in seconds.",
			Buckets:   importBuckets,
		}, []string{"profile", "status"}),
		importNodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "import_nodes_total",
			Help:      "Competencies handled by imports, by outcome.",
		}, []string{"outcome"}),
		graphSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "graph_sync_total",
			Help:      "Graph mirror syncs by status.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.importRuns, m.importDuration, m.importNodes, m.graphSync,
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	return m
}

// Registry exposes the private registry, e.g. for extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	m.Handler().ServeHTTP(w, r)
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method, route, status = labelValue(method), labelValue(route), labelValue(status)
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveImport(profile, status string, dur time.Duration, created, skipped, related int) {
	if m == nil {
		return
	}
	profile, status = labelValue(profile), labelValue(status)
	m.importRuns.WithLabelValues(profile, status).Inc()
	m.importDuration.WithLabelValues(profile, status).Observe(dur.Seconds())
	addNodes(m.importNodes, "created", created)
	addNodes(m.importNodes, "skipped", skipped)
	addNodes(m.importNodes, "related", related)
}

func (m *Metrics) IncGraphSync(status string) {
	if m == nil {
		return
	}
	m.graphSync.WithLabelValues(labelValue(status)).Inc()
}

// Counters panic on negative adds.
func addNodes(c *prometheus.CounterVec, outcome string, n int) {
	if n > 0 {
		c.WithLabelValues(outcome).Add(float64(n))
	}
}

func labelValue(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "unknown"
	}
	return v
}
