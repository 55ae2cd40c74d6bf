package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Prediction outcomes
const (
	OutcomeOK               = "ok"
	OutcomeViewOnly         = "view_only"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeNotFound         = "not_found"
	OutcomeInvalid          = "invalid"
	OutcomeFailed           = "failed"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Pipeline metrics
	predictionsTotal *prometheus.CounterVec
	fitDuration      prometheus.Histogram
	seriesCache      *prometheus.CounterVec
	degradedReports  prometheus.Counter
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),

		predictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finadict_predictions_total",
				Help: "Pipeline runs by interval and outcome",
			},
			[]string{"interval", "outcome"},
		),
		fitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finadict_fit_duration_seconds",
				Help:    "Model fit duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
		),
		seriesCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finadict_series_cache_total",
				Help: "Series cache lookups by result",
			},
			[]string{"result"},
		),
		degradedReports: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "finadict_degraded_reports_total",
				Help: "Accuracy reports with non-numeric points or aggregates",
			},
		),
	}

	reg.MustRegister(
		r.httpRequestsTotal,
		r.httpRequestDuration,
		r.httpRequestsInFlight,
		r.predictionsTotal,
		r.fitDuration,
		r.seriesCache,
		r.degradedReports,
	)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	r.httpRequestsTotal.WithLabelValues(method, path, statusToString(status)).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordPrediction counts a finished pipeline run.
func (r *Registry) RecordPrediction(interval, outcome string) {
	r.predictionsTotal.WithLabelValues(interval, outcome).Inc()
}

// ObserveFit records a model fit duration.
func (r *Registry) ObserveFit(d time.Duration) {
	r.fitDuration.Observe(d.Seconds())
}

// RecordCacheLookup counts a series cache hit or miss.
func (r *Registry) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.seriesCache.WithLabelValues(result).Inc()
}

// RecordDegraded counts a degraded accuracy report.
func (r *Registry) RecordDegraded() {
	r.degradedReports.Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
