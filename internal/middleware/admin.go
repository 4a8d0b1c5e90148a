package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminMiddleware ставится после AuthMiddleware и пускает только админов.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("is_admin")
		isAdmin, _ := v.(bool)
		if !ok || !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
