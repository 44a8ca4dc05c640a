package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

var kindStatus = map[services.ErrorKind]int{
	services.KindNotFound:             http.StatusNotFound,
	services.KindInvalidState:         http.StatusConflict,
	services.KindValidationFailed:     http.StatusBadRequest,
	services.KindInsufficientStock:    http.StatusConflict,
	services.KindAmountExceedsBalance: http.StatusUnprocessableEntity,
	services.KindShiftAlreadyOpen:     http.StatusConflict,
	services.KindNoOpenShift:          http.StatusConflict,
	services.KindConcurrencyConflict:  http.StatusConflict,
	services.KindNoPendingItems:       http.StatusConflict,
	services.KindForbidden:            http.StatusForbidden,
}

// StatusFor -> kind ke HTTP status, kind tidak dikenal jadi 500
func StatusFor(kind services.ErrorKind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// ServiceErrorBody -> payload tambahan untuk kegagalan per item
type ServiceErrorBody struct {
	Index int `json:"index"`
}

func respondServiceError(c *gin.Context, err error) {
	var se *services.ServiceError
	if !errors.As(err, &se) {
		_ = c.Error(err)
		utils.ErrorLogger.WithField("path", c.Request.URL.Path).Errorf("internal error: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}
	if se.Index >= 0 {
		c.JSON(StatusFor(se.Kind), utils.JSONResponse{
			Status:  false,
			Message: se.Error(),
			Kind:    string(se.Kind),
			Data:    ServiceErrorBody{Index: se.Index},
		})
		return
	}
	utils.RespondErrorKind(c, StatusFor(se.Kind), string(se.Kind), se)
}

func badRequest(c *gin.Context, err error) {
	utils.RespondErrorKind(c, http.StatusBadRequest, string(services.KindValidationFailed), err)
}

// paramID -> ambil :name dari path sebagai uint
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *gin.Context, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(v), nil
}

func actor(c *gin.Context) (services.Actor, bool) {
	a, ok := middlewares.CurrentActor(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
		return services.Actor{}, false
	}
	return a, true
}
