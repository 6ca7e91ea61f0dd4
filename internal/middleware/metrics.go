package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	requestsMetric        = "prompt_optimizer_http_requests_total"
	requestDurationMetric = "prompt_optimizer_http_request_duration_seconds"
)

type MetricsRecorder interface {
	RecordCounter(metricName string, labels map[string]string, value float64)
	RecordTimer(metricName string, labels map[string]string, duration time.Duration)
}

// Metrics counts requests by route template so unmatched paths collapse into
// one series.
func Metrics(recorder MetricsRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		recorder.RecordCounter(requestsMetric, map[string]string{
			"method": c.Request.Method,
			"path":   path,
			"status": strconv.Itoa(c.Writer.Status()),
		}, 1)
		recorder.RecordTimer(requestDurationMetric, map[string]string{
			"method": c.Request.Method,
			"path":   path,
		}, time.Since(start))
	}
}
