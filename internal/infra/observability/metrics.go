package observability

import (
	"strconv"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "dashboard"

// Metrics holds all Prometheus metrics for the dashboard service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	httpDuration       *prometheus.HistogramVec
	operationDuration  *prometheus.HistogramVec
	externalErrors     *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	dashboardsRendered *prometheus.CounterVec
	budgetExceeded     prometheus.Counter
	rejectedRecords    *prometheus.CounterVec
	budgetUsage        prometheus.Histogram
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests build as many
// instances as they need.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of service operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "external_errors_total",
				Help:      "Total errors from transaction sources.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total cache misses.",
			},
			[]string{"cache"},
		),
		dashboardsRendered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rendered_total",
				Help:      "Dashboards rendered, by input source.",
			},
			[]string{"source"},
		),
		budgetExceeded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "budget_exceeded_total",
				Help:      "Rendered dashboards whose monthly spending exceeded the budget.",
			},
		),
		rejectedRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_records_total",
				Help:      "Transaction records dropped by validation.",
			},
			[]string{"source", "field"},
		),
		budgetUsage: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "budget_usage_ratio",
				Help:      "Monthly expense divided by budget at render time.",
				Buckets:   []float64{0.25, 0.5, 0.75, 0.9, 1, 1.25, 1.5, 2},
			},
		),
	}
}

// RecordHTTPRequest observes one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRejectedRecord counts a record dropped by validation.
func (m *Metrics) IncrRejectedRecord(source, field string) {
	m.rejectedRecords.WithLabelValues(source, field).Inc()
}

// RecordDashboard records a rendered dashboard and its budget usage.
func (m *Metrics) RecordDashboard(source string, usageRatio float64, exceeded bool) {
	m.dashboardsRendered.WithLabelValues(source).Inc()
	m.budgetUsage.Observe(usageRatio)
	if exceeded {
		m.budgetExceeded.Inc()
	}
}

// Snapshot summarizes the cumulative counters for GET /v1/metrics/dashboard.
func (m *Metrics) Snapshot() *domain.DashboardMetrics {
	families, err := m.Registry.Gather()
	if err != nil {
		return &domain.DashboardMetrics{Period: "all_time"}
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		byName[f.GetName()] = f
	}

	hits := counterSum(byName[namespace+"_cache_hits_total"])
	misses := counterSum(byName[namespace+"_cache_misses_total"])
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	sum, count := histogramTotals(byName[namespace+"_operation_duration_seconds"])
	avgLatencyMs := float64(0)
	if count > 0 {
		avgLatencyMs = sum / float64(count) * 1000
	}

	return &domain.DashboardMetrics{
		DashboardsRendered: counterSum(byName[namespace+"_rendered_total"]),
		BudgetExceeded:     counterSum(byName[namespace+"_budget_exceeded_total"]),
		RejectedRecords:    counterSum(byName[namespace+"_rejected_records_total"]),
		ExternalErrors:     counterSum(byName[namespace+"_external_errors_total"]),
		CacheHitRate:       hitRate,
		AvgLatencyMs:       avgLatencyMs,
		Period:             "all_time",
	}
}

// counterSum adds the values of every series in a counter family.
func counterSum(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	return total
}

func histogramTotals(f *dto.MetricFamily) (sum float64, count uint64) {
	if f == nil {
		return 0, 0
	}
	for _, m := range f.GetMetric() {
		h := m.GetHistogram()
		sum += h.GetSampleSum()
		count += h.GetSampleCount()
	}
	return sum, count
}
