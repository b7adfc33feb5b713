package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	awspkg "github.com/tobaccostore/backend/pkg/aws"
)

// HTTPMetrics records request counts and latencies in Prometheus and, when
// enabled, CloudWatch.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	cw       *awspkg.MetricsClient
	service  string
}

func NewHTTPMetrics(reg prometheus.Registerer, cw *awspkg.MetricsClient, serviceName string) *HTTPMetrics {
	factory := promauto.With(reg)
	return &HTTPMetrics{
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status_code"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		cw:      cw,
		service: serviceName,
	}
}

func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		code := strconv.Itoa(status)

		m.duration.WithLabelValues(c.Request.Method, path, code).Observe(elapsed.Seconds())
		m.requests.WithLabelValues(c.Request.Method, path, code).Inc()

		if !m.cw.IsEnabled() {
			return
		}
		dims := map[string]string{
			"Service": m.service,
			"Method":  c.Request.Method,
			"Path":    path,
			"Status":  statusCodeToRange(status),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = m.cw.RecordCount(ctx, awspkg.MetricHTTPRequests, dims)
			_ = m.cw.RecordLatency(ctx, awspkg.MetricHTTPLatency, elapsed, dims)
			switch {
			case status >= 500:
				_ = m.cw.RecordCount(ctx, awspkg.MetricHTTP5xx, dims)
			case status >= 400:
				_ = m.cw.RecordCount(ctx, awspkg.MetricHTTP4xx, dims)
			}
		}()
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
