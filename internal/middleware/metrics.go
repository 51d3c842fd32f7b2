package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careloop/scheduling-api/internal/service"
)

// Metrics returns middleware that records per-request duration and count
// metrics. The scrape endpoint itself is excluded to keep the series clean.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		// FullPath keeps the route template so path params don't explode
		// label cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
