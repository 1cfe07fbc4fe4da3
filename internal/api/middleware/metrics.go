package middleware

import (
	"strconv"
	"time"

	"example.com/fieldwork/services/workorders/internal/metrics"

	"github.com/gin-gonic/gin"
)

// RequestMetrics records per-request counters and timings
func RequestMetrics(collector *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		collector.IncrementCounter("http_requests_total")
		collector.IncrementCounter("http_responses_" + strconv.Itoa(c.Writer.Status()))
		collector.RecordTiming("http_request_duration", time.Since(start))
	}
}
