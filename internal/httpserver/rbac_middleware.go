package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aicoach/pkg/rbac"
)

// RequirePermission gates a route on an RBAC permission. Must run after
// AuthMiddleware.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt("user_id")
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		if err := rbac.CheckPermission(userID, permission); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}

		c.Next()
	}
}
