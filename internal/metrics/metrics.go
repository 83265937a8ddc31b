// Package metrics defines Prometheus metrics for the classifier.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anzclass_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anzclass_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anzclass_errors_total",
			Help: "Total API error responses by error code",
		},
		[]string{"kind"},
	)

	ClassificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anzclass_classifications_total",
			Help: "Completed classify calls by mode",
		},
		[]string{"mode"},
	)

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anzclass_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	RerankFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "anzclass_rerank_fallbacks_total",
			Help: "Wide-context fallback invocations after an empty first attempt",
		},
	)

	RerankEmpty = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "anzclass_rerank_empty_total",
			Help: "Classify calls that stayed empty after the fallback",
		},
	)

	HydrateMissing = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "anzclass_hydrate_missing_total",
			Help: "Fused codes the hydrate step could not resolve",
		},
	)

	TokenRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "anzclass_token_refreshes_total",
			Help: "Provider token refreshes, including 401-forced ones",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		ClassificationsTotal, StageDuration,
		RerankFallbacks, RerankEmpty, HydrateMissing,
		TokenRefreshes,
	)
}
