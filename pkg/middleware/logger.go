package middleware

import (
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

// RequestLogger logs each callback request. Query values are never logged,
// only the parameter names, because payment returns carry processor references.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
			zap.String("correlation_id", GetCorrelationID(c)),
		}
		if names := queryNames(c); len(names) > 0 {
			fields = append(fields, zap.Strings("params", names))
		}

		switch {
		case len(c.Errors) > 0:
			log.Error("callback request failed", append(fields, zap.String("errors", c.Errors.String()))...)
		case c.Writer.Status() >= 500:
			log.Warn("callback request failed", fields...)
		default:
			log.Info("callback request", fields...)
		}
	}
}

func queryNames(c *gin.Context) []string {
	q := c.Request.URL.Query()
	names := make([]string, 0, len(q))
	for k := range q {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
