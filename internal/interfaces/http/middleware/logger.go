// internal/interfaces/http/middleware/logger.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger returns a gin.HandlerFunc that logs one entry per HTTP request
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"request_id":    c.GetString(ctxRequestID),
			"method":        c.Request.Method,
			"path":          path,
			"route":         c.FullPath(),
			"status_code":   c.Writer.Status(),
			"latency":       time.Since(start).String(),
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
			"response_size": c.Writer.Size(),
		})

		if userID, ok := GetUserIDFromContext(c); ok {
			entry = entry.WithField("user_id", userID)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("HTTP request completed with server error")
		case status >= 400:
			entry.Warn("HTTP request completed with client error")
		default:
			entry.Info("HTTP request completed successfully")
		}
	}
}
