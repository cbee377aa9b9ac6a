// Package metrics records Prometheus HTTP metrics per request.
package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/observability/metrics"
)

// Metrics records duration, count and in-flight requests. The route label is
// the route template so ids do not explode cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.IncrementInFlight()
		defer metrics.DecrementInFlight()

		start := time.Now()
		c.Next()

		metrics.RecordHTTPMetrics(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
