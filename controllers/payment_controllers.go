package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type PaymentController struct {
	Payments *services.PaymentService
	Events   *services.Dispatcher
}

func NewPaymentController(payments *services.PaymentService, events *services.Dispatcher) *PaymentController {
	return &PaymentController{Payments: payments, Events: events}
}

// ProcessPayment -> catat pembayaran (penuh atau parsial) untuk order
func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, events, err := pc.Payments.ProcessPayment(c.Request.Context(), a, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pc.Events.Dispatch(events)

	msg := "Payment recorded"
	if result.OrderFullySettled {
		msg = "Payment recorded, order settled"
	}
	utils.RespondJSON(c, http.StatusCreated, msg, result)
}

func (pc *PaymentController) ListPayments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	summary, err := pc.Payments.ListPayments(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order payments", summary)
}

// CloseTable -> tutup meja yang tidak punya order aktif (customer pergi, kecelakaan, dll)
func (pc *PaymentController) CloseTable(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Reason models.TableClosureReason `json:"reason" binding:"required"`
		Notes  string                    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	closure, events, err := pc.Payments.CloseTableWithoutOrder(c.Request.Context(), a, id, body.Reason, body.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	pc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Table closed", closure)
}
