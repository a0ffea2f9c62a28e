// internal/interfaces/http/middleware/rate_limit.go
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RateLimit implements a fixed one-minute window per client IP using Redis.
// When Redis is unreachable requests are let through.
func RateLimit(limit int, redisClient *redis.Client, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || redisClient == nil {
			c.Next()
			return
		}

		window := time.Now().Unix() / 60
		key := fmt.Sprintf("rate_limit:%s:%d", c.ClientIP(), window)

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		pipe := redisClient.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, time.Minute)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.WithError(err).Warn("Rate limiter unavailable")
			c.Next()
			return
		}

		current := int(incr.Val())
		remaining := limit - current
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt((window+1)*60, 10))

		if current > limit {
			c.Header("Retry-After", "60")
			abortWithError(c, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded")
			return
		}

		c.Next()
	}
}
