package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

type AddItemsPolicy string

const (
	// AddItemsAtomic rejects the whole call when any item fails validation.
	AddItemsAtomic AddItemsPolicy = "atomic"
	// AddItemsSkip adds the valid items and reports the rest as skipped.
	AddItemsSkip AddItemsPolicy = "skip"
)

func ParseAddItemsPolicy(s string) AddItemsPolicy {
	if AddItemsPolicy(s) == AddItemsSkip {
		return AddItemsSkip
	}
	return AddItemsAtomic
}

type OrderItemInput struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

type CreateOrderRequest struct {
	TableID uint             `json:"table_id"`
	Items   []OrderItemInput `json:"items"`
	Notes   string           `json:"notes"`
}

type SkippedItem struct {
	Index     int       `json:"index"`
	ProductID uint      `json:"product_id"`
	Kind      ErrorKind `json:"kind"`
	Reason    string    `json:"reason"`
}

type AddItemsResult struct {
	Order   *models.Order      `json:"order"`
	Added   []models.OrderItem `json:"added"`
	Skipped []SkippedItem      `json:"skipped"`
}

type CancelItemRequest struct {
	Reason   models.CancellationReason `json:"reason"`
	Quantity int                       `json:"quantity"`
	Notes    string                    `json:"notes"`
}

type OrderFilter struct {
	State   models.OrderState
	TableID uint
	Limit   int
}

// OrderService owns the order and order item lifecycle.
type OrderService struct {
	db        *gorm.DB
	inventory *InventoryLedger
	policy    AddItemsPolicy
}

func NewOrderService(db *gorm.DB, inventory *InventoryLedger, policy AddItemsPolicy) *OrderService {
	if policy == "" {
		policy = AddItemsAtomic
	}
	return &OrderService{db: db, inventory: inventory, policy: policy}
}

func (s *OrderService) Policy() AddItemsPolicy {
	return s.policy
}

func validateItemInput(i int, in OrderItemInput) error {
	if in.ProductID == 0 {
		return itemError(KindValidationFailed, i, "item %d: product_id is required", i)
	}
	if in.Quantity < 1 {
		return itemError(KindValidationFailed, i, "item %d: quantity must be at least 1", i)
	}
	return nil
}

func validateItemInputs(items []OrderItemInput) error {
	for i, in := range items {
		if err := validateItemInput(i, in); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) insertItem(tx *gorm.DB, actor Actor, order *models.Order, index int, in OrderItemInput) (*models.OrderItem, error) {
	product, err := s.inventory.Reserve(tx, in.ProductID, in.Quantity, StockRef{
		OrderID: &order.ID,
		UserID:  actor.UserID,
		Index:   index,
	})
	if err != nil {
		return nil, err
	}

	item := models.OrderItem{
		OrderID:      order.ID,
		ProductID:    product.ID,
		Quantity:     in.Quantity,
		UnitPrice:    product.UnitPrice,
		LineSubtotal: lineSubtotal(product.UnitPrice, in.Quantity),
		State:        models.ItemPending,
		Notes:        in.Notes,
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create order item: %w", err)
	}
	return &item, nil
}

// CreateOrder opens an order on a table with its first items. All items are
// validated and reserved in one transaction; any failure rolls everything back.
// The caller is expected to have checked that a cash register shift is open.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (*models.Order, []Event, error) {
	if err := Authorize(actor, CapCreateOrder); err != nil {
		return nil, nil, err
	}
	if req.TableID == 0 {
		return nil, nil, newError(KindValidationFailed, "table_id is required")
	}
	if len(req.Items) == 0 {
		return nil, nil, newError(KindValidationFailed, "order requires at least one item")
	}
	if err := validateItemInputs(req.Items); err != nil {
		return nil, nil, err
	}

	var orderID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// table lock first so split bill sequence numbers cannot collide
		table, err := lockTable(tx, req.TableID)
		if err != nil {
			return err
		}
		if !table.Active {
			return newError(KindInvalidState, "table %s is deactivated", table.Label)
		}
		active, err := activeOrderCount(tx, table.ID)
		if err != nil {
			return err
		}
		percent, err := serviceFeePercent(tx)
		if err != nil {
			return err
		}

		now := time.Now()
		order := models.Order{
			OrderNumber:    newOrderNumber(now),
			TableID:        table.ID,
			ServerUserID:   actor.UserID,
			SequenceNumber: int(active) + 1,
			State:          models.OrderOpen,
			ServicePercent: percent,
			Notes:          req.Notes,
			OpenedAt:       now,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i, in := range req.Items {
			if _, err := s.insertItem(tx, actor, &order, i, in); err != nil {
				return err
			}
		}

		if err := recomputeTotals(tx, &order); err != nil {
			return err
		}
		if err := markOccupied(tx, table); err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"table_id": order.TableID,
		"total":    order.Total.String(),
	}).Info("order created")

	return order, []Event{newEvent(EventOrderCreated, "order", order.ID, order)}, nil
}

// AddItems appends items to a non-terminal order. Item failures are handled per
// the configured policy; both policies report per-item outcomes.
func (s *OrderService) AddItems(ctx context.Context, actor Actor, orderID uint, items []OrderItemInput) (*AddItemsResult, []Event, error) {
	if err := Authorize(actor, CapAddItems); err != nil {
		return nil, nil, err
	}
	if len(items) == 0 {
		return nil, nil, newError(KindValidationFailed, "at least one item is required")
	}
	if s.policy == AddItemsAtomic {
		if err := validateItemInputs(items); err != nil {
			return nil, nil, err
		}
	}

	result := &AddItemsResult{Added: []models.OrderItem{}, Skipped: []SkippedItem{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.State.Terminal() {
			return newError(KindInvalidState, "cannot add items to a %s order", order.State)
		}

		for i, in := range items {
			item, err := s.addItem(tx, actor, order, i, in)
			if err != nil {
				if s.policy == AddItemsSkip && skippable(err) {
					result.Skipped = append(result.Skipped, SkippedItem{
						Index:     i,
						ProductID: in.ProductID,
						Kind:      KindOf(err),
						Reason:    err.Error(),
					})
					continue
				}
				return err
			}
			result.Added = append(result.Added, *item)
		}

		return recomputeTotals(tx, order)
	})
	if err != nil {
		return nil, nil, err
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	result.Order = order

	var events []Event
	if len(result.Added) > 0 {
		events = append(events, newEvent(EventOrderUpdated, "order", order.ID, order))
	}
	return result, events, nil
}

// addItem validates one input before reserving it, so under the skip policy
// a bad quantity is reported like any other per-item failure.
func (s *OrderService) addItem(tx *gorm.DB, actor Actor, order *models.Order, index int, in OrderItemInput) (*models.OrderItem, error) {
	if err := validateItemInput(index, in); err != nil {
		return nil, err
	}
	return s.insertItem(tx, actor, order, index, in)
}

// skippable failures happen before any write, so skipping needs no savepoint.
func skippable(err error) bool {
	switch KindOf(err) {
	case KindNotFound, KindValidationFailed, KindInsufficientStock:
		return true
	}
	return false
}

// SendToKitchen dispatches every pending, unprinted item. A second call with
// nothing new fails with NoPendingItems and changes nothing.
func (s *OrderService) SendToKitchen(ctx context.Context, actor Actor, orderID uint) ([]models.OrderItem, []Event, error) {
	if err := Authorize(actor, CapSendToKitchen); err != nil {
		return nil, nil, err
	}

	var ids []uint
	var stateChanged bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.State.Terminal() {
			return newError(KindInvalidState, "order %d is %s", order.ID, order.State)
		}

		var pending []models.OrderItem
		if err := tx.Where("order_id = ? AND state = ? AND printed_to_kitchen = ?", order.ID, models.ItemPending, false).
			Order("id ASC").
			Find(&pending).Error; err != nil {
			return fmt.Errorf("failed to load pending items: %w", err)
		}
		if len(pending) == 0 {
			return &ServiceError{Kind: KindNoPendingItems, Message: fmt.Sprintf("order %d has no pending items", order.ID), Index: -1}
		}

		for _, item := range pending {
			ids = append(ids, item.ID)
		}
		now := time.Now()
		res := tx.Model(&models.OrderItem{}).
			Where("id IN ? AND state = ?", ids, models.ItemPending).
			Updates(map[string]interface{}{
				"state":           models.ItemKitchenSent,
				"kitchen_sent_at": now,
				"updated_at":      now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to dispatch items: %w", res.Error)
		}
		if res.RowsAffected != int64(len(ids)) {
			return newError(KindConcurrencyConflict, "order %d items changed concurrently, retry", order.ID)
		}

		if order.State == models.OrderOpen {
			if err := guardedUpdate(tx, &models.Order{}, order.ID, models.OrderOpen, map[string]interface{}{
				"state": models.OrderSent,
			}); err != nil {
				return err
			}
			stateChanged = true
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var sent []models.OrderItem
	if err := s.db.WithContext(ctx).Preload("Product").Where("id IN ?", ids).Order("id ASC").Find(&sent).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to reload dispatched items: %w", err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": orderID,
		"items":    len(sent),
	}).Info("items sent to kitchen")

	return sent, []Event{newEvent(EventOrderUpdated, "order", orderID, map[string]interface{}{
		"order_id":      orderID,
		"items":         sent,
		"state_changed": stateChanged,
	})}, nil
}

var kitchenTargets = map[models.ItemState]bool{
	models.ItemInPreparation: true,
	models.ItemReady:         true,
}

// UpdateItemStatus is the kitchen transition: only in_preparation and ready are accepted.
func (s *OrderService) UpdateItemStatus(ctx context.Context, actor Actor, itemID uint, target models.ItemState) (*models.OrderItem, []Event, error) {
	if err := Authorize(actor, CapUpdateItemStatus); err != nil {
		return nil, nil, err
	}
	if !kitchenTargets[target] {
		return nil, nil, newError(KindValidationFailed, "kitchen may only set in_preparation or ready, got %q", target)
	}

	var item *models.OrderItem
	var order *models.Order
	var orderChanged bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if item, order, err = lockItemWithOrder(tx, itemID); err != nil {
			return err
		}
		if item.State == models.ItemCancelled || item.State == models.ItemDelivered {
			return newError(KindInvalidState, "item %d is %s", item.ID, item.State)
		}

		if item.State != target {
			if err := guardedUpdate(tx, &models.OrderItem{}, item.ID, item.State, map[string]interface{}{
				"state": target,
			}); err != nil {
				return err
			}
			item.State = target
		}

		orderChanged, err = syncKitchenState(tx, order)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	events := []Event{newEvent(EventOrderItemStatusChanged, "order", item.OrderID, map[string]interface{}{
		"order_id": item.OrderID,
		"item_id":  item.ID,
		"state":    item.State,
	})}
	if orderChanged {
		events = append(events, newEvent(EventOrderUpdated, "order", order.ID, order))
	}
	return item, events, nil
}

// MarkItemDelivered records the floor's delivery report at face value.
func (s *OrderService) MarkItemDelivered(ctx context.Context, actor Actor, itemID uint) (*models.OrderItem, []Event, error) {
	if err := Authorize(actor, CapDeliverItem); err != nil {
		return nil, nil, err
	}

	var item *models.OrderItem
	var order *models.Order
	var orderChanged bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if item, order, err = lockItemWithOrder(tx, itemID); err != nil {
			return err
		}
		if order.State.Terminal() {
			return newError(KindInvalidState, "order %d is %s", order.ID, order.State)
		}
		if item.State == models.ItemCancelled {
			return newError(KindInvalidState, "item %d is cancelled", item.ID)
		}
		if item.State == models.ItemDelivered {
			return nil
		}
		if err := guardedUpdate(tx, &models.OrderItem{}, item.ID, item.State, map[string]interface{}{
			"state": models.ItemDelivered,
		}); err != nil {
			return err
		}
		item.State = models.ItemDelivered

		var undelivered int64
		if err := tx.Model(&models.OrderItem{}).
			Where("order_id = ? AND state IN ? AND state <> ?", order.ID, models.BillableItemStates, models.ItemDelivered).
			Count(&undelivered).Error; err != nil {
			return fmt.Errorf("failed to count undelivered items: %w", err)
		}
		if undelivered == 0 && order.State != models.OrderDelivered {
			if err := guardedUpdate(tx, &models.Order{}, order.ID, order.State, map[string]interface{}{
				"state": models.OrderDelivered,
			}); err != nil {
				return err
			}
			order.State = models.OrderDelivered
			orderChanged = true
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events := []Event{newEvent(EventOrderItemStatusChanged, "order", item.OrderID, map[string]interface{}{
		"order_id": item.OrderID,
		"item_id":  item.ID,
		"state":    item.State,
	})}
	if orderChanged {
		events = append(events, newEvent(EventOrderUpdated, "order", order.ID, order))
	}
	return item, events, nil
}

// CancelItem cancels all or part of an item, writes the audit row, returns
// stock and recomputes the order totals from scratch.
func (s *OrderService) CancelItem(ctx context.Context, actor Actor, itemID uint, req CancelItemRequest) (*models.Order, []Event, error) {
	if err := Authorize(actor, CapCancelItem); err != nil {
		return nil, nil, err
	}
	if !req.Reason.Valid() {
		return nil, nil, newError(KindValidationFailed, "invalid cancellation reason %q", req.Reason)
	}
	if req.Quantity < 0 {
		return nil, nil, newError(KindValidationFailed, "quantity cannot be negative")
	}

	var item *models.OrderItem
	var order *models.Order
	var cancelled int
	var settled, released bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if item, order, err = lockItemWithOrder(tx, itemID); err != nil {
			return err
		}
		if order.State.Terminal() {
			return newError(KindInvalidState, "order %d is %s", order.ID, order.State)
		}
		if !item.State.Cancellable() {
			return newError(KindInvalidState, "item %d is %s and cannot be cancelled", item.ID, item.State)
		}

		cancelled = req.Quantity
		if cancelled == 0 {
			cancelled = item.Quantity
		}
		if cancelled > item.Quantity {
			return newError(KindValidationFailed, "cannot cancel %d units, item has %d", cancelled, item.Quantity)
		}

		if err := s.cancelQuantity(tx, actor, order, item, cancelled, req.Reason, req.Notes); err != nil {
			return err
		}
		if err := recomputeTotals(tx, order); err != nil {
			return err
		}
		settled, released, err = settleIfCovered(tx, order)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"item_id":  item.ID,
		"quantity": cancelled,
		"reason":   req.Reason,
	}).Info("order item cancelled")

	reloaded, err := s.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, nil, err
	}
	events := []Event{newEvent(EventOrderItemCancelled, "order", order.ID, map[string]interface{}{
		"order_id": order.ID,
		"item_id":  item.ID,
		"quantity": cancelled,
		"reason":   req.Reason,
		"order":    reloaded,
	})}
	if settled {
		utils.InfoLogger.WithField("order_id", order.ID).Info("order settled by cancellation")
		events = append(events, newEvent(EventOrderUpdated, "order", order.ID, reloaded))
	}
	if released {
		events = append(events, tableReleased(order.TableID))
	}
	return reloaded, events, nil
}

func (s *OrderService) cancelQuantity(tx *gorm.DB, actor Actor, order *models.Order, item *models.OrderItem, quantity int, reason models.CancellationReason, notes string) error {
	audit := models.OrderCancellation{
		OrderItemID:       item.ID,
		OrderID:           order.ID,
		UserID:            actor.UserID,
		Reason:            reason,
		Notes:             notes,
		QuantityCancelled: quantity,
		CreatedAt:         time.Now(),
	}
	if err := tx.Create(&audit).Error; err != nil {
		return fmt.Errorf("failed to record cancellation: %w", err)
	}

	if err := s.inventory.Release(tx, item.ProductID, quantity, StockRef{OrderID: &order.ID, UserID: actor.UserID, Index: -1}); err != nil {
		return err
	}

	if quantity == item.Quantity {
		if err := guardedUpdate(tx, &models.OrderItem{}, item.ID, item.State, map[string]interface{}{
			"state": models.ItemCancelled,
		}); err != nil {
			return err
		}
		item.State = models.ItemCancelled
		return nil
	}

	remaining := item.Quantity - quantity
	newSubtotal := lineSubtotal(item.UnitPrice, remaining)
	res := tx.Model(&models.OrderItem{}).
		Where("id = ? AND state = ? AND quantity = ?", item.ID, item.State, item.Quantity).
		Updates(map[string]interface{}{
			"quantity":      remaining,
			"line_subtotal": newSubtotal,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to reduce item quantity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(KindConcurrencyConflict, "item %d changed concurrently, retry", item.ID)
	}
	item.Quantity = remaining
	item.LineSubtotal = newSubtotal
	return nil
}

// settleIfCovered runs after a cancellation. Paid above the new total is
// rejected; paid equal to it closes the order like a final payment would.
func settleIfCovered(tx *gorm.DB, order *models.Order) (settled, released bool, err error) {
	paid, err := totalPaid(tx, order.ID)
	if err != nil {
		return false, false, err
	}
	if paid.GreaterThan(order.Total) {
		return false, false, newError(KindInvalidState, "order %d already has %s paid, cancellation would drop total to %s",
			order.ID, paid.StringFixed(2), order.Total.StringFixed(2))
	}
	if !paid.IsPositive() || paid.LessThan(order.Total) {
		return false, false, nil
	}

	now := time.Now()
	if err := guardedUpdate(tx, &models.Order{}, order.ID, order.State, map[string]interface{}{
		"state":     models.OrderPaid,
		"closed_at": now,
	}); err != nil {
		return false, false, err
	}
	order.State = models.OrderPaid
	order.ClosedAt = &now

	released, err = releaseIfIdle(tx, order.TableID)
	return true, released, err
}

// TransferOrder moves an order to another table and frees the source table if idle.
func (s *OrderService) TransferOrder(ctx context.Context, actor Actor, orderID, targetTableID uint) (*models.Order, []Event, error) {
	if err := Authorize(actor, CapTransferOrder); err != nil {
		return nil, nil, err
	}
	if targetTableID == 0 {
		return nil, nil, newError(KindValidationFailed, "target table is required")
	}

	var sourceTableID uint
	var released bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.State.Terminal() {
			return newError(KindInvalidState, "order %d is %s", order.ID, order.State)
		}
		if order.TableID == targetTableID {
			return newError(KindValidationFailed, "order %d is already on table %d", order.ID, targetTableID)
		}

		target, err := lockTable(tx, targetTableID)
		if err != nil {
			return err
		}
		if !target.Active {
			return newError(KindInvalidState, "table %s is deactivated", target.Label)
		}
		active, err := activeOrderCount(tx, target.ID)
		if err != nil {
			return err
		}

		sourceTableID = order.TableID
		if err := guardedUpdate(tx, &models.Order{}, order.ID, order.State, map[string]interface{}{
			"table_id":        target.ID,
			"sequence_number": int(active) + 1,
		}); err != nil {
			return err
		}
		if err := markOccupied(tx, target); err != nil {
			return err
		}
		released, err = releaseIfIdle(tx, sourceTableID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     sourceTableID,
		"to":       targetTableID,
	}).Info("order transferred")

	events := []Event{newEvent(EventOrderUpdated, "order", order.ID, order)}
	if released {
		events = append(events, tableReleased(sourceTableID))
	}
	return order, events, nil
}

// CancelOrder is the explicit whole-order cancellation. Orders with recorded
// payments cannot be cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, actor Actor, orderID uint, reason models.CancellationReason, notes string) (*models.Order, []Event, error) {
	if err := Authorize(actor, CapCancelOrder); err != nil {
		return nil, nil, err
	}
	if !reason.Valid() {
		return nil, nil, newError(KindValidationFailed, "invalid cancellation reason %q", reason)
	}

	var tableID uint
	var released bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.State.Terminal() {
			return newError(KindInvalidState, "order %d is already %s", order.ID, order.State)
		}
		paid, err := totalPaid(tx, order.ID)
		if err != nil {
			return err
		}
		if paid.IsPositive() {
			return newError(KindInvalidState, "order %d has payments recorded and cannot be cancelled", order.ID)
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ? AND state IN ?", order.ID,
			[]models.ItemState{models.ItemPending, models.ItemKitchenSent, models.ItemInPreparation}).
			Order("id ASC").Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load items: %w", err)
		}
		for i := range items {
			if err := s.cancelQuantity(tx, actor, order, &items[i], items[i].Quantity, reason, notes); err != nil {
				return err
			}
		}
		if err := recomputeTotals(tx, order); err != nil {
			return err
		}

		if err := guardedUpdate(tx, &models.Order{}, order.ID, order.State, map[string]interface{}{
			"state":     models.OrderCancelled,
			"closed_at": time.Now(),
		}); err != nil {
			return err
		}
		tableID = order.TableID
		released, err = releaseIfIdle(tx, order.TableID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	events := []Event{newEvent(EventOrderUpdated, "order", order.ID, order)}
	if released {
		events = append(events, tableReleased(tableID))
	}
	return order, events, nil
}

// MarkPrinted flags kitchen-sent items as printed after the ticket sink accepted them.
func (s *OrderService) MarkPrinted(ctx context.Context, orderID uint, itemIDs []uint) error {
	if len(itemIDs) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("order_id = ? AND id IN ?", orderID, itemIDs).
		Updates(map[string]interface{}{"printed_to_kitchen": true, "updated_at": time.Now()}).Error; err != nil {
		return fmt.Errorf("failed to mark items printed: %w", err)
	}
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Preload("Payments").
		Preload("Table").
		First(&order, id).Error; err != nil {
		return nil, notFoundOr(err, "order", id)
	}
	return &order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items").Preload("Table")
	if filter.State != "" {
		q = q.Where("state = ?", filter.State)
	}
	if filter.TableID != 0 {
		q = q.Where("table_id = ?", filter.TableID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var orders []models.Order
	if err := q.Order("opened_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ActiveOrdersForTable returns the table's non-terminal orders by sequence number.
func (s *OrderService) ActiveOrdersForTable(ctx context.Context, tableID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("table_id = ? AND state IN ?", tableID, models.NonTerminalOrderStates).
		Order("sequence_number ASC, id ASC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load active orders: %w", err)
	}
	return orders, nil
}

// KitchenQueue lists orders the kitchen is still working on, oldest first.
func (s *OrderService) KitchenQueue(ctx context.Context) ([]models.Order, error) {
	kitchenStates := []models.ItemState{models.ItemKitchenSent, models.ItemInPreparation}

	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Preload("Items", "state IN ?", kitchenStates).
		Preload("Items.Product").
		Preload("Table").
		Where("state IN ?", []models.OrderState{models.OrderSent, models.OrderInPreparation}).
		Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.state IN ?)", kitchenStates).
		Order("opened_at ASC, id ASC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load kitchen queue: %w", err)
	}
	return orders, nil
}

func lockItemWithOrder(tx *gorm.DB, itemID uint) (*models.OrderItem, *models.Order, error) {
	// lock order is always order first, then item
	var ref models.OrderItem
	if err := tx.Select("id", "order_id").First(&ref, itemID).Error; err != nil {
		return nil, nil, notFoundOr(err, "order item", itemID)
	}
	order, err := lockOrder(tx, ref.OrderID)
	if err != nil {
		return nil, nil, err
	}
	item, err := lockItem(tx, itemID)
	if err != nil {
		return nil, nil, err
	}
	return item, order, nil
}

var kitchenRank = map[models.OrderState]int{
	models.OrderSent:          1,
	models.OrderInPreparation: 2,
	models.OrderReady:         3,
}

// syncKitchenState moves a dispatched order forward as its items progress.
// It never moves an order backwards or out of a terminal state.
func syncKitchenState(tx *gorm.DB, order *models.Order) (bool, error) {
	current, tracked := kitchenRank[order.State]
	if !tracked {
		return false, nil
	}

	var items []models.OrderItem
	if err := tx.Select("id", "state").
		Where("order_id = ? AND state IN ?", order.ID, models.BillableItemStates).
		Find(&items).Error; err != nil {
		return false, fmt.Errorf("failed to load items: %w", err)
	}

	var waiting, cooking, done int
	for _, item := range items {
		switch item.State {
		case models.ItemPending, models.ItemKitchenSent:
			waiting++
		case models.ItemInPreparation:
			cooking++
		case models.ItemReady, models.ItemDelivered:
			done++
		}
	}

	next := order.State
	switch {
	case waiting == 0 && cooking == 0 && done > 0:
		next = models.OrderReady
	case cooking > 0 || done > 0:
		next = models.OrderInPreparation
	}
	if kitchenRank[next] <= current {
		return false, nil
	}

	if err := guardedUpdate(tx, &models.Order{}, order.ID, order.State, map[string]interface{}{
		"state": next,
	}); err != nil {
		return false, err
	}
	order.State = next
	return true, nil
}
