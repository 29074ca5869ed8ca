package middleware

import (
	"log/slog"
	"strconv"

	apperrors "inkpost/internal/errors"
	"inkpost/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit limits each caller, keyed by user id or client IP when anonymous.
// Must run after LoadUser.
func RateLimit(limiter *ratelimit.KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if uid := CurrentUserID(c); uid != 0 {
			key = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		if !limiter.Allow(key) {
			slog.Warn("Rate limit exceeded", "key", key, "path", c.Request.URL.Path)
			AbortWithError(c, apperrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
