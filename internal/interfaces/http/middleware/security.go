// internal/interfaces/http/middleware/security.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxRequestID    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// SecurityHeaders adds security headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Server", "Storefront API")

		c.Next()
	}
}

// RequestID propagates the caller's X-Request-ID or assigns a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Set(ctxRequestID, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// RequestSizeLimit caps request bodies at maxBytes, or at multipartMaxBytes
// for multipart/form-data uploads
func RequestSizeLimit(maxBytes, multipartMaxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			limit = multipartMaxBytes
		}

		if c.Request.ContentLength > limit {
			abortWithError(c, http.StatusRequestEntityTooLarge, "invalid_input", "Request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
