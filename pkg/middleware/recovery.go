package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/logger"
	"go.uber.org/zap"
)

// Recovery turns a panic in a callback handler into a 500 envelope. It must
// run outside sentrygin, which reports the panic and re-panics.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			correlationID := GetCorrelationID(c)
			log.Error("callback handler panicked",
				zap.Any("panic", rec),
				zap.String("path", c.Request.URL.Path),
				zap.String("correlation_id", correlationID),
				zap.Stack("stack"),
			)

			_ = c.Error(fmt.Errorf("panic: %v", rec))
			common.ErrorResponseWithID(c, http.StatusInternalServerError, "payment return could not be processed", correlationID)
			c.Abort()
		}()

		c.Next()
	}
}
