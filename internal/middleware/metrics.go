package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admitguard-api/internal/service"
)

const unmatchedPath = "unmatched"

// Metrics records request latency per route template and counts access
// denials as admissions events.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		status := c.Writer.Status()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, time.Since(start))

		if event := denialEvent(c, status); event != "" {
			metricsSvc.RecordEvent(event)
		}
	}
}

// denialEvent classifies a refused request. A 404 counts as a hidden batch
// only when a batch id was supplied and never resolved.
func denialEvent(c *gin.Context, status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return service.EventAuthRejected
	case status == http.StatusForbidden:
		return service.EventAccessForbidden
	case status == http.StatusNotFound && c.Param(BatchParam) != "" && CurrentBatch(c) == nil:
		return service.EventBatchNotFound
	}
	return ""
}
