// Package logging writes one structured log entry per HTTP request.
package logging

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimburion/storefront/pkg/observability/logger"
)

// Log field name constants
const (
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldRemoteAddr = "remote_addr"
	FieldError      = "error"
)

// Config configures request logging.
type Config struct {
	Enabled              bool
	ExcludedPathPrefixes []string
}

// DefaultConfig logs everything except health checks and metrics scrapes.
func DefaultConfig() Config {
	return Config{
		Enabled:              true,
		ExcludedPathPrefixes: []string{"/health", "/metrics"},
	}
}

// Logging creates middleware with default configuration.
func Logging(log logger.Logger) gin.HandlerFunc {
	return WithConfig(log, DefaultConfig())
}

// WithConfig logs completed requests at info, 4xx at warn and 5xx at error.
func WithConfig(log logger.Logger, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !cfg.enabledFor(path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []any{
			FieldMethod, c.Request.Method,
			FieldPath, path,
			FieldStatus, status,
			FieldDurationMS, time.Since(start).Milliseconds(),
			FieldRemoteAddr, c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, FieldError, c.Errors.Last().Error())
		}

		reqLog := log.WithContext(c.Request.Context())
		switch {
		case status >= 500:
			reqLog.Error("request failed", fields...)
		case status >= 400:
			reqLog.Warn("request rejected", fields...)
		default:
			reqLog.Info("request completed", fields...)
		}
	}
}

func (c Config) enabledFor(path string) bool {
	if !c.Enabled {
		return false
	}
	for _, prefix := range c.ExcludedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}
