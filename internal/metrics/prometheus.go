package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppms_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ppms_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppms_mutations_total",
		Help: "Committed entity mutations",
	}, []string{"table", "action"})

	AuditEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppms_audit_entries_total",
		Help: "Audit trail rows committed",
	}, []string{"table", "action"})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppms_store_errors_total",
		Help: "Failed store operations by error class",
	}, []string{"kind"})

	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppms_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"result"})
)

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if strings.TrimSpace(route) == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveMutation counts one committed mutation and the audit rows it wrote.
func ObserveMutation(table, action string, auditRows int) {
	Mutations.WithLabelValues(table, action).Inc()
	if auditRows > 0 {
		AuditEntries.WithLabelValues(table, action).Add(float64(auditRows))
	}
}

func ObserveStoreError(kind string) {
	StoreErrors.WithLabelValues(kind).Inc()
}

func ObserveLogin(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	LoginAttempts.WithLabelValues(result).Inc()
}
