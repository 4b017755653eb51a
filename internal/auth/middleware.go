package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AuthMiddleware validates JWT tokens and protects routes
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		tokenString := parts[1]

		claims, err := ValidateToken(tokenString)
		if err != nil {
			log.WithError(err).Debug("Token validation failed")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		// Opaque correlation hash tying ledger events back to the
		// authenticated request that produced them.
		sum := sha256.Sum256([]byte(tokenString))

		c.Set("telegram_id", claims.TelegramID)
		c.Set("is_admin", claims.IsAdmin)
		c.Set("request_hash", hex.EncodeToString(sum[:16]))

		c.Next()
	}
}

// AdminMiddleware rejects requests whose token lacks the admin claim.
// Must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, exists := c.Get("is_admin"); !exists || isAdmin != true {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetTelegramID retrieves the authenticated Telegram id from the context
func GetTelegramID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("telegram_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// GetRequestHash retrieves the per-request correlation hash.
func GetRequestHash(c *gin.Context) string {
	v, exists := c.Get("request_hash")
	if !exists {
		return ""
	}
	h, _ := v.(string)
	return h
}
