package middleware

import (
	"time"

	"chillerdash/internal"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request through logger. Server errors are
// logged at error level, client errors at warn, everything else at debug.
func RequestLogger(logger *internal.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start).Round(time.Microsecond)
		switch {
		case status >= 500:
			logger.Error("[HTTP] %s %s -> %d in %v: %s", c.Request.Method, path, status, elapsed, c.Errors.String())
		case status >= 400:
			logger.Warn("[HTTP] %s %s -> %d in %v", c.Request.Method, path, status, elapsed)
		default:
			logger.Debug("[HTTP] %s %s -> %d in %v (%d bytes)", c.Request.Method, path, status, elapsed, c.Writer.Size())
		}
	}
}
