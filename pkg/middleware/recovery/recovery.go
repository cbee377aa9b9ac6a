// Package recovery turns handler panics into 500 responses.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/controller"
	"github.com/nimburion/storefront/pkg/observability/logger"
)

// Recovery logs the panic with its stack and answers 500 unless a response
// was already written.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.WithContext(c.Request.Context()).Error("panic recovered",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			status, body := controller.MapError(c.Request.Context(), panicError{})
			c.AbortWithStatusJSON(status, body)
		}()
		c.Next()
	}
}

type panicError struct{}

func (panicError) Error() string { return http.StatusText(http.StatusInternalServerError) }

