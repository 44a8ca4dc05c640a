package middlewares

import (
	"github.com/gin-gonic/gin"
)

// WebSocketAuthMiddleware -> browser tidak bisa kirim header saat upgrade, token lewat query
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}
		if !authenticate(c, token) {
			c.AbortWithStatus(401)
			return
		}
		c.Next()
	}
}
