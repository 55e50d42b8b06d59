package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements every hook interface on top of Prometheus
// collectors. Register one instance for all hook categories.
type Prometheus struct {
	gatherer prometheus.Gatherer

	// Pipeline metrics
	loadsTotal     *prometheus.CounterVec
	loadDuration   prometheus.Histogram
	loadedAssets   prometheus.Histogram
	splitsTotal    *prometheus.CounterVec
	splitDuration  prometheus.Histogram
	bundlesEmitted prometheus.Histogram
	rendersTotal   *prometheus.CounterVec
	renderDuration prometheus.Histogram

	// Split stage metrics
	stageDuration    *prometheus.HistogramVec
	stageNodes       *prometheus.GaugeVec
	stageErrors      *prometheus.CounterVec
	packagesCreated  prometheus.Counter
	packagesMerged   prometheus.Counter
	mergedBytesTotal prometheus.Counter

	// Cache metrics
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	cacheSetBytes *prometheus.CounterVec

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ SplitHooks    = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)

// NewPrometheus creates and registers all collectors with reg. Passing a
// fresh prometheus.NewRegistry() keeps tests isolated from the global
// default registry.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	f := promauto.With(reg)
	durations := []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

	return &Prometheus{
		gatherer: reg,

		// Pipeline metrics
		loadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domsplit_loads_total",
				Help: "Total number of asset graph loads",
			},
			[]string{"status"},
		),
		loadDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "domsplit_load_duration_seconds",
				Help:    "Asset graph load latency in seconds",
				Buckets: durations,
			},
		),
		loadedAssets: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "domsplit_loaded_assets",
				Help:    "Number of assets per loaded graph",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		splitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domsplit_splits_total",
				Help: "Total number of split runs",
			},
			[]string{"status"},
		),
		splitDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "domsplit_split_duration_seconds",
				Help:    "End-to-end split latency in seconds",
				Buckets: durations,
			},
		),
		bundlesEmitted: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "domsplit_bundles_per_split",
				Help:    "Number of bundles produced per split",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		rendersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domsplit_renders_total",
				Help: "Total number of plan renders",
			},
			[]string{"status"},
		),
		renderDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "domsplit_render_duration_seconds",
				Help:    "Plan render latency in seconds",
				Buckets: durations,
			},
		),

		// Split stage metrics
		stageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "domsplit_stage_duration_seconds",
				Help:    "Split stage latency in seconds",
				Buckets: durations,
			},
			[]string{"stage"},
		),
		stageNodes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "domsplit_stage_nodes",
				Help: "Node count of the graph produced by the last run of each stage",
			},
			[]string{"stage"},
		),
		stageErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domsplit_stage_errors_total",
				Help: "Total number of failed split stages",
			},
			[]string{"stage"},
		),
		packagesCreated: f.NewCounter(
			prometheus.CounterOpts{
				Name: "domsplit_packages_created_total",
				Help: "Total number of package nodes created",
			},
		),
		packagesMerged: f.NewCounter(
			prometheus.CounterOpts{
				Name: "domsplit_packages_merged_total",
				Help: "Total number of packages inlined into their parents",
			},
		),
		mergedBytesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "domsplit_merged_bytes_total",
				Help: "Total bytes duplicated by package merging",
			},
		),

		// Cache metrics
		cacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domsplit_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"key_type"},
		),
		cacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domsplit_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"key_type"},
		),
		cacheSetBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domsplit_cache_set_bytes_total",
				Help: "Total bytes written to the cache",
			},
			[]string{"key_type"},
		),

		// HTTP metrics
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domsplit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "domsplit_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		httpRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "domsplit_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
	}
}

// Handler returns an HTTP handler exposing the registered collectors.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Prometheus) OnLoadStart(context.Context, string) {}

func (m *Prometheus) OnLoadComplete(_ context.Context, _ string, assetCount int, d time.Duration, err error) {
	m.loadsTotal.WithLabelValues(status(err)).Inc()
	m.loadDuration.Observe(d.Seconds())
	if err == nil {
		m.loadedAssets.Observe(float64(assetCount))
	}
}

func (m *Prometheus) OnSplitStart(context.Context, int) {}

func (m *Prometheus) OnSplitComplete(_ context.Context, bundleCount int, d time.Duration, err error) {
	m.splitsTotal.WithLabelValues(status(err)).Inc()
	m.splitDuration.Observe(d.Seconds())
	if err == nil {
		m.bundlesEmitted.Observe(float64(bundleCount))
	}
}

func (m *Prometheus) OnRenderStart(context.Context, []string) {}

func (m *Prometheus) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	m.rendersTotal.WithLabelValues(status(err)).Inc()
	m.renderDuration.Observe(d.Seconds())
}

func (m *Prometheus) OnStageStart(context.Context, string) {}

func (m *Prometheus) OnStageComplete(_ context.Context, stage string, nodeCount int, d time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(stage).Inc()
		return
	}
	m.stageNodes.WithLabelValues(stage).Set(float64(nodeCount))
}

func (m *Prometheus) OnPackageCreated(context.Context, string, int) {
	m.packagesCreated.Inc()
}

func (m *Prometheus) OnPackageMerged(_ context.Context, _ string, size int64, parentCount int) {
	m.packagesMerged.Inc()
	m.mergedBytesTotal.Add(float64(size * int64(parentCount)))
}

func (m *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	m.cacheHits.WithLabelValues(keyType).Inc()
}

func (m *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheMisses.WithLabelValues(keyType).Inc()
}

func (m *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheSetBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Prometheus) OnRequest(context.Context, string, string) {
	m.httpRequestsInFlight.Inc()
}

func (m *Prometheus) OnResponse(_ context.Context, method, route string, statusCode int, d time.Duration) {
	m.httpRequestsInFlight.Dec()
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
