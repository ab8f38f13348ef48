package middleware

import (
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pantryplan/backend/internal/ratelimit"
)

// RateLimit enforces a per-user fixed-window budget using the given limiter.
// Denials carry Retry-After and a retryAfter hint in the body. A store
// failure fails open: the request proceeds and the error is logged.
func RateLimit(limiter ratelimit.Limiter, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		result, err := limiter.Check(c.Request.Context(), userID.(string))
		if err != nil {
			log.Printf("[ratelimit] check failed, allowing request: %v", err)
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		retryAfter := int(math.Ceil(result.ResetIn.Seconds()))
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(retryAfter))

		if !result.Allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"retryAfter": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
