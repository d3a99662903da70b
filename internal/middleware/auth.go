package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"facematch/internal/redis"
	"facematch/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthRequired validates the bearer JWT and stores the caller's profile
// id under "user_id".
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// limiterCaller keys authenticated traffic by profile id and anonymous
// traffic by client IP. Register RateLimit after AuthRequired on
// authenticated groups so the user key applies.
func limiterCaller(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		return userID.(string)
	}
	return c.ClientIP()
}

// RateLimit counts requests per caller in a fixed one-minute window.
func RateLimit(client *redis.Client, perMinute int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s:%d", limiterCaller(c), time.Now().Unix()/60)
		count, err := client.Incr(c.Request.Context(), key)
		if err != nil {
			// Redis being down should not lock everyone out.
			c.Next()
			return
		}
		if count == 1 {
			_ = client.Expire(c.Request.Context(), key, time.Minute)
		}

		if count > perMinute {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// TouchLastSeen bumps the caller's last_seen_at at most once per
// minute, throttled through redis so browsing does not write on every
// request.
func TouchLastSeen(db *gorm.DB, client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		userID, exists := c.Get("user_id")
		if !exists {
			return
		}

		key := "lastseen:" + userID.(string)
		ok, err := client.SetNX(c.Request.Context(), key, 1, time.Minute)
		if err != nil || !ok {
			return
		}

		db.Table("profiles").Where("id = ?", userID).Update("last_seen_at", time.Now())
	}
}
