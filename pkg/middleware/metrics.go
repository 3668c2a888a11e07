package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claims_api_requests_total",
			Help: "Total HTTP requests served by the decision engine API",
		},
		[]string{"method", "endpoint", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claims_api_request_duration_seconds",
			Help:    "HTTP request duration per decision engine endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	apiRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "claims_api_requests_in_flight",
			Help: "HTTP requests currently being served",
		},
	)
)

// Metrics records request counts, latency, and in-flight load per endpoint.
// Unmatched paths collapse into a single label to keep cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		apiRequestsInFlight.Inc()

		c.Next()

		apiRequestsInFlight.Dec()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		apiRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		apiRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
