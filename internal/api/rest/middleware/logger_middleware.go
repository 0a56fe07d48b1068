package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulsefit-app/billing-service/pkg/logger"
)

// LoggerMiddleware logs every request with latency and status
func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		switch {
		case status >= 500:
			log.Errorw("Request failed",
				"method", method, "path", path, "status", status, "latency", latency)
		case status >= 400:
			log.Warnw("Request rejected",
				"method", method, "path", path, "status", status, "latency", latency)
		default:
			log.Infow("Request handled",
				"method", method, "path", path, "status", status, "latency", latency)
		}
	}
}
