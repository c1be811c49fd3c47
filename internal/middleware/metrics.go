package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edusight/prism/internal/service"
)

// Metrics records request duration and counts per route. The templated
// route path keeps label cardinality bounded.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(started))
	}
}
