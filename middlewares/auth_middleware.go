package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// AuthMiddleware memverifikasi bearer token dari identity provider dan menyimpan actor di context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("format token tidak valid"))
			c.Abort()
			return
		}

		if !authenticate(c, strings.TrimPrefix(authHeader, "Bearer ")) {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, token string) bool {
	claims, err := utils.ParseToken(token)
	if err != nil {
		return false
	}
	role := services.Role(claims.Role)
	if !role.Valid() {
		return false
	}
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxRole, role)
	return true
}

// CurrentActor -> actor terverifikasi yang disimpan AuthMiddleware
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	userID, ok := c.Get(ctxUserID)
	if !ok {
		return services.Actor{}, false
	}
	role, ok := c.Get(ctxRole)
	if !ok {
		return services.Actor{}, false
	}
	id, _ := userID.(uint)
	r, _ := role.(services.Role)
	if id == 0 || !r.Valid() {
		return services.Actor{}, false
	}
	return services.Actor{UserID: id, Role: r}, true
}
