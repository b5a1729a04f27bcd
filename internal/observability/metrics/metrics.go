package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalhub_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rentalhub_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	propertyApprovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalhub_property_approvals_total",
		Help: "Approval workflow decisions by result",
	}, []string{"result"})

	tenantOnboardings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalhub_tenant_onboardings_total",
		Help: "Tenant onboarding attempts by result",
	}, []string{"result"})

	occupancyTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalhub_unit_occupancy_transitions_total",
		Help: "Unit and property occupancy transitions",
	}, []string{"transition"})

	jobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentalhub_job_runs_total",
		Help: "Scheduled job runs by job and result",
	}, []string{"job", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveApproval counts approve/reject decisions and refused transitions.
func ObserveApproval(result string) {
	propertyApprovals.WithLabelValues(result).Inc()
}

func ObserveOnboarding(result string) {
	tenantOnboardings.WithLabelValues(result).Inc()
}

// ObserveOccupancy counts occupy/vacate transitions.
func ObserveOccupancy(transition string) {
	occupancyTransitions.WithLabelValues(transition).Inc()
}

func ObserveJobRun(job, result string) {
	jobRuns.WithLabelValues(job, result).Inc()
}
