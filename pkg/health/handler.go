package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler answers 200 when every check is healthy and 503 otherwise.
func Handler(registry *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := registry.Check(c.Request.Context())
		status := http.StatusOK
		if !result.IsHealthy() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, result)
	}
}
