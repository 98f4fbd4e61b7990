package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	studentSyncsTotal    *prometheus.CounterVec
	upstreamCallsTotal   *prometheus.CounterVec
	remindersSentTotal   prometheus.Counter
	sweepDurationSeconds prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used across the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spms_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spms_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spms_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		studentSyncsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spms_student_syncs_total",
			Help: "Total number of per-student sync units executed.",
		}, []string{"status"})

		upstreamCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spms_upstream_calls_total",
			Help: "Total number of Codeforces API calls by category and result.",
		}, []string{"category", "result"})

		remindersSentTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spms_reminders_sent_total",
			Help: "Total number of inactivity reminder emails delivered.",
		})

		sweepDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spms_sweep_duration_seconds",
			Help:    "Duration of full-roster sync sweeps.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			studentSyncsTotal,
			upstreamCallsTotal,
			remindersSentTotal,
			sweepDurationSeconds,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// StudentSyncs exposes the per-student sync counter.
func StudentSyncs() *prometheus.CounterVec {
	RegisterMetrics()
	return studentSyncsTotal
}

// UpstreamCalls exposes the Codeforces call counter.
func UpstreamCalls() *prometheus.CounterVec {
	RegisterMetrics()
	return upstreamCallsTotal
}

// RemindersSent exposes the delivered reminder counter.
func RemindersSent() prometheus.Counter {
	RegisterMetrics()
	return remindersSentTotal
}

// SweepDuration exposes the sweep duration histogram.
func SweepDuration() prometheus.Histogram {
	RegisterMetrics()
	return sweepDurationSeconds
}
