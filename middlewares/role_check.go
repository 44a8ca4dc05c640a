package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// RequireCapability guards read-only routes; mutating operations are also checked inside the services.
func RequireCapability(capability services.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			c.Abort()
			return
		}
		if err := services.Authorize(actor, capability); err != nil {
			utils.RespondErrorKind(c, http.StatusForbidden, string(services.KindForbidden), err)
			c.Abort()
			return
		}
		c.Next()
	}
}
