package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cyphera/cyphera-delegation/libs/go/logger"
)

// RequestLoggingMiddleware logs method, path, status and duration of every request
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		l := logger.NewStructuredLogger(logger.ComponentServer).
			WithCorrelationID(GetCorrelationID(c)).
			WithFields(map[string]interface{}{
				"client_ip": c.ClientIP(),
				"body_size": c.Writer.Size(),
			})
		for _, err := range c.Errors {
			l.Error("Request error", err.Err)
		}
		l.LogHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(startTime))
	}
}
