package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IdentityMiddleware extracts the authenticated user from the X-User-ID
// header set by the host application's auth gateway and stores it in the
// request context. Authentication itself happens upstream; this service
// trusts the gateway.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 when no user identity is present. Applied to
// the user-scoped personalization routes.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("user_id") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
