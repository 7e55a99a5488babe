package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	submissionsGradedTotal *prometheus.CounterVec
	gradingSeconds         *prometheus.HistogramVec
	checkResultsTotal      *prometheus.CounterVec
	bestScorePromotions    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and
// the grading pipeline.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradehub_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gradehub_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradehub_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsGradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradehub_submissions_graded_total",
			Help: "Total number of submissions graded.",
		}, []string{"homework"})

		gradingSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gradehub_grading_duration_seconds",
			Help:    "Wall-clock duration of full submission grading runs.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"homework"})

		checkResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradehub_check_results_total",
			Help: "Normalized check outcomes by status.",
		}, []string{"status"})

		bestScorePromotions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradehub_best_score_promotions_total",
			Help: "Ledger entries whose best score improved.",
		}, []string{"homework"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsGradedTotal,
			gradingSeconds,
			checkResultsTotal,
			bestScorePromotions,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// SubmissionsGraded exposes the counter for graded submissions.
func SubmissionsGraded() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsGradedTotal
}

// GradingDuration exposes the grading run histogram.
func GradingDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return gradingSeconds
}

// CheckResults exposes the per-status check outcome counter.
func CheckResults() *prometheus.CounterVec {
	RegisterMetrics()
	return checkResultsTotal
}

// BestScorePromotions exposes the counter for best-score improvements.
func BestScorePromotions() *prometheus.CounterVec {
	RegisterMetrics()
	return bestScorePromotions
}
