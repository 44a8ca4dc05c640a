package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func lockOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
		return nil, notFoundOr(err, "order", id)
	}
	return &order, nil
}

func lockItem(tx *gorm.DB, id uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, id).Error; err != nil {
		return nil, notFoundOr(err, "order item", id)
	}
	return &item, nil
}

// guardedUpdate only applies when the row is still in the expected state.
// Zero affected rows means another terminal got there first.
func guardedUpdate(tx *gorm.DB, model interface{}, id uint, expected interface{}, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := tx.Model(model).Where("id = ? AND state = ?", id, expected).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update state: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(KindConcurrencyConflict, "record %d changed concurrently, retry", id)
	}
	return nil
}

func serviceAmount(subtotal, percent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(percent).Div(hundred).Round(2)
}

func lineSubtotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// recomputeTotals rebuilds subtotal, service and total from the billable items.
// Called after every item mutation; there is no running counter.
func recomputeTotals(tx *gorm.DB, order *models.Order) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ? AND state IN ?", order.ID, models.BillableItemStates).
		Find(&items).Error; err != nil {
		return fmt.Errorf("failed to load items for totals: %w", err)
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(lineSubtotal(item.UnitPrice, item.Quantity))
	}
	service := serviceAmount(subtotal, order.ServicePercent)
	total := subtotal.Add(service)

	if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"subtotal":       subtotal,
		"service_amount": service,
		"total":          total,
		"updated_at":     time.Now(),
	}).Error; err != nil {
		return fmt.Errorf("failed to update order totals: %w", err)
	}

	order.Subtotal = subtotal
	order.ServiceAmount = service
	order.Total = total
	return nil
}

// totalPaid is recomputed from payment rows on every call.
func totalPaid(tx *gorm.DB, orderID uint) (decimal.Decimal, error) {
	var payments []models.Payment
	if err := tx.Select("amount").Where("order_id = ?", orderID).Find(&payments).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum, nil
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
