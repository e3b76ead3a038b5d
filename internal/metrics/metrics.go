package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
	CompletionRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_completion_requests_total",
		Help: "Total number of upstream completion calls",
	}, []string{"model", "outcome"})
	CompletionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "llm_completion_duration_seconds",
		Help:    "Upstream completion call duration in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
	})
)

func init() {
	prometheus.MustRegister(HttpRequestsTotal, HttpRequestDuration, CompletionRequestsTotal, CompletionDuration)
}

// GinMiddleware records basic request metrics for Prometheus to pull.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}

// ObserveCompletion records one upstream completion call.
func ObserveCompletion(model string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	CompletionRequestsTotal.With(prometheus.Labels{"model": model, "outcome": outcome}).Inc()
	CompletionDuration.Observe(elapsed.Seconds())
}
