// Package metrics exposes Prometheus collectors for HTTP traffic, response
// envelope outcomes and rate limiting.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "a11y"

var (
	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AssistiveRequestsTotal counts requests whose User-Agent names an
	// assistive technology.
	AssistiveRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistive_requests_total",
			Help:      "Requests from assistive technology user agents",
		},
	)

	// EnvelopesTotal counts response envelopes by message type.
	EnvelopesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_envelopes_total",
			Help:      "Response envelopes written",
		},
		[]string{"message_type"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_rejected_total",
			Help:      "Rate limit rejections",
		},
		[]string{"rule", "bonus"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AssistiveRequestsTotal,
		EnvelopesTotal,
		RateLimitRejectedTotal,
	)
}

// Middleware records request counts and durations. Routes are labelled by
// their registered pattern so path parameters do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status()/100) + "xx"

		RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveEnvelope counts one written envelope.
func ObserveEnvelope(messageType string) {
	EnvelopesTotal.WithLabelValues(messageType).Inc()
}

// ObserveRateLimited counts one rejected request.
func ObserveRateLimited(rule string, bonus bool) {
	RateLimitRejectedTotal.WithLabelValues(rule, strconv.FormatBool(bonus)).Inc()
}
