package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger middleware logs each request with its method, path, status, latency,
// correlation ID, and the authenticated actor when one has been resolved.
// Server-side failures are logged at error level so billing incidents stand
// out in aggregated logs.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestLogger := logger
		if correlationID := GetCorrelationID(c); correlationID != "" {
			requestLogger = requestLogger.With("correlation_id", correlationID)
		}

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method

		if raw != "" {
			path = path + "?" + raw
		}

		attrs := []any{
			"method", method,
			"path", path,
			"status", statusCode,
			"latency", latency,
			"client_ip", c.ClientIP(),
		}

		// The principal is resolved after this middleware runs, so it is only
		// available on the way out
		if actor, ok := GetPrincipal(c); ok {
			attrs = append(attrs, "actor_id", actor.ID.String(), "actor_role", string(actor.Role))
		}

		if statusCode >= 500 {
			requestLogger.Error("HTTP request", attrs...)
			return
		}
		requestLogger.Info("HTTP request", attrs...)
	}
}
