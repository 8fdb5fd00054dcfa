package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
)

// RequestLogger logs every request with its outcome and latency.
func RequestLogger(logger outbound.LoggerPort) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.InfoWithFields("request completed", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
	}
}
