package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/polymorphisma/userhub/pkg/logger"
)

// Logger returns a gin middleware writing one structured access-log
// entry per request, enriched with the request and trace IDs.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		entry := logger.WithContext(c.Request.Context(), log)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("http request", fields...)
		case c.Writer.Status() >= 400:
			entry.Warn("http request", fields...)
		default:
			entry.Info("http request", fields...)
		}
	}
}
