package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type OrderController struct {
	Orders  *services.OrderService
	Events  *services.Dispatcher
	Tickets *PrintController
}

func NewOrderController(orders *services.OrderService, events *services.Dispatcher, tickets *PrintController) *OrderController {
	return &OrderController{Orders: orders, Events: events, Tickets: tickets}
}

// CreateOrder -> buka order baru di meja
func (oc *OrderController) CreateOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, events, err := oc.Orders.CreateOrder(c.Request.Context(), a, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	oc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// ListOrders -> filter ?state= dan ?table_id=
func (oc *OrderController) ListOrders(c *gin.Context) {
	tableID, err := queryUint(c, "table_id")
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := queryUint(c, "limit")
	if err != nil {
		badRequest(c, err)
		return
	}

	filter := services.OrderFilter{
		State:   models.OrderState(c.Query("state")),
		TableID: tableID,
		Limit:   int(limit),
	}
	if c.Query("active") == "true" && tableID != 0 {
		orders, err := oc.Orders.ActiveOrdersForTable(c.Request.Context(), tableID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Active orders", orders)
		return
	}

	orders, err := oc.Orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// AddItems -> tambah item ke order yang masih berjalan
func (oc *OrderController) AddItems(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Items []services.OrderItemInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	result, events, err := oc.Orders.AddItems(c.Request.Context(), a, id, body.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	oc.Events.Dispatch(events)

	msg := "Items added"
	if len(result.Skipped) > 0 {
		msg = fmt.Sprintf("Items added, %d skipped (%s policy)", len(result.Skipped), oc.Orders.Policy())
	}
	utils.RespondJSON(c, http.StatusOK, msg, result)
}

// SendToKitchen -> kirim item pending ke dapur lalu cetak tiket di background
func (oc *OrderController) SendToKitchen(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	items, events, err := oc.Orders.SendToKitchen(c.Request.Context(), a, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	oc.Events.Dispatch(events)
	if oc.Tickets.enabled() {
		go oc.Tickets.printKitchenAsync(id)
	}
	utils.RespondJSON(c, http.StatusOK, "Items sent to kitchen", items)
}

func (oc *OrderController) UpdateItemStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		State models.ItemState `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	item, events, err := oc.Orders.UpdateItemStatus(c.Request.Context(), a, id, body.State)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	oc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Item status updated", item)
}

func (oc *OrderController) MarkItemDelivered(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	item, events, err := oc.Orders.MarkItemDelivered(c.Request.Context(), a, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	oc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Item delivered", item)
}

// CancelItem -> batalkan item (sebagian atau penuh), tiket pembatalan dikirim ke stasiun
func (oc *OrderController) CancelItem(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.CancelItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, events, err := oc.Orders.CancelItem(c.Request.Context(), a, id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	oc.Events.Dispatch(events)
	if oc.Tickets.enabled() {
		go oc.Tickets.printCancellationAsync(order, id, req)
	}
	utils.RespondJSON(c, http.StatusOK, "Item cancelled", order)
}

func (oc *OrderController) TransferOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	order, events, err := oc.Orders.TransferOrder(c.Request.Context(), a, id, body.TableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	oc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Order transferred", order)
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Reason models.CancellationReason `json:"reason" binding:"required"`
		Notes  string                    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	order, events, err := oc.Orders.CancelOrder(c.Request.Context(), a, id, body.Reason, body.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	oc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}

// KitchenQueue -> antrian KDS
func (oc *OrderController) KitchenQueue(c *gin.Context) {
	orders, err := oc.Orders.KitchenQueue(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen queue", orders)
}

// cancellationTarget -> cari item yang dibatalkan di order terbaru
func cancellationTarget(order *models.Order, itemID uint) (models.OrderItem, bool) {
	for _, item := range order.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return models.OrderItem{}, false
}
