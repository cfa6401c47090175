// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lightbnb_db_query_duration_seconds",
			Help:    "Duration of PostgreSQL statements in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightbnb_db_query_errors_total",
			Help: "Total number of failed PostgreSQL statements",
		},
		[]string{"operation", "sqlstate"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightbnb_api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lightbnb_api_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Auth Metrics
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lightbnb_login_attempts_total",
			Help: "Total number of login attempts by outcome",
		},
		[]string{"outcome"}, // "success", "invalid", "error"
	)
)

// RecordDBQuery records one statement. sqlstate is empty for errors that
// did not come from the server.
func RecordDBQuery(operation string, duration time.Duration, err error, sqlstate string) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		if sqlstate == "" {
			sqlstate = "none"
		}
		DBQueryErrors.WithLabelValues(operation, sqlstate).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLogin records the outcome of a login attempt
func RecordLogin(outcome string) {
	LoginAttempts.WithLabelValues(outcome).Inc()
}
