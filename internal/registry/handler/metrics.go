package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	clipxProofsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipx_proofs_registered_total",
		Help: "Total screenshot proofs registered.",
	})

	clipxRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipx_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	clipxRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clipx_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	clipxDepositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipx_deposits_units_total",
		Help: "Total value units accepted into the treasury.",
	})

	clipxReleasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clipx_releases_units_total",
		Help: "Total value units released from the treasury.",
	})

	clipxIntegrityChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipx_integrity_checks_total",
		Help: "Total event chain integrity checks by result.",
	}, []string{"result"})

	clipxWebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clipx_webhook_deliveries_total",
		Help: "Total webhook deliveries by success status.",
	}, []string{"status"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		clipxRequestsTotal.WithLabelValues(method, path, status).Inc()
		clipxRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordProofRegistered records a successful proof registration.
func RecordProofRegistered() {
	clipxProofsTotal.Inc()
}

// RecordDeposit records value accepted into the treasury.
func RecordDeposit(amount int64) {
	clipxDepositsTotal.Add(float64(amount))
}

// RecordRelease records value released from the treasury.
func RecordRelease(amount int64) {
	clipxReleasesTotal.Add(float64(amount))
}

// RecordIntegrityCheck records an event chain integrity check result.
func RecordIntegrityCheck(success bool) {
	if success {
		clipxIntegrityChecksTotal.WithLabelValues("success").Inc()
	} else {
		clipxIntegrityChecksTotal.WithLabelValues("failure").Inc()
	}
}

// RecordWebhookDelivery records a webhook delivery attempt.
func RecordWebhookDelivery(success bool) {
	if success {
		clipxWebhookDeliveriesTotal.WithLabelValues("success").Inc()
	} else {
		clipxWebhookDeliveriesTotal.WithLabelValues("failure").Inc()
	}
}
