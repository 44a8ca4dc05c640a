package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// RequireOpenShift menolak request kalau belum ada shift kasir yang dibuka
func RequireOpenShift(register *services.CashRegisterService) gin.HandlerFunc {
	return func(c *gin.Context) {
		shift, err := register.CurrentShift(c.Request.Context())
		if err != nil {
			if services.KindOf(err) == services.KindNoOpenShift {
				utils.RespondErrorKind(c, http.StatusConflict, string(services.KindNoOpenShift), err)
			} else {
				utils.RespondError(c, http.StatusInternalServerError, err)
			}
			c.Abort()
			return
		}
		c.Set("shift_id", shift.ID)
		c.Next()
	}
}
