package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Minute

// RateLimit is a fixed-window limiter shared across instances through
// redis and keyed by client IP. Redis errors let the request through.
func RateLimit(rdb *redis.Client, perMinute int64, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ratelimit:" + c.ClientIP()

		ctx := c.Request.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Warn("rate limiter unavailable", slog.Any("error", err))
			c.Next()
			return
		}
		if count == 1 {
			if err := rdb.Expire(ctx, key, rateLimitWindow).Err(); err != nil {
				log.Warn("failed to set rate limit window", slog.Any("error", err))
			}
		}

		if count > perMinute {
			c.Header("Retry-After", strconv.Itoa(int(rateLimitWindow.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
