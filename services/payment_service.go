package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

type PaymentRequest struct {
	Amount     decimal.Decimal   `json:"amount"`
	TenderType models.TenderType `json:"tender_type"`
	Reference  string            `json:"reference"`
	Notes      string            `json:"notes"`
	Partial    bool              `json:"partial"`
}

type PaymentResult struct {
	Payment           models.Payment  `json:"payment"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	Remaining         decimal.Decimal `json:"remaining"`
	OrderFullySettled bool            `json:"order_fully_settled"`
}

type PaymentSummary struct {
	OrderID   uint             `json:"order_id"`
	Total     decimal.Decimal  `json:"total"`
	TotalPaid decimal.Decimal  `json:"total_paid"`
	Remaining decimal.Decimal  `json:"remaining"`
	Payments  []models.Payment `json:"payments"`
}

// PaymentService applies tenders against order balances.
type PaymentService struct {
	db       *gorm.DB
	register *CashRegisterService
}

func NewPaymentService(db *gorm.DB, register *CashRegisterService) *PaymentService {
	return &PaymentService{db: db, register: register}
}

// ProcessPayment applies one tender against the order balance. Payment insert,
// shift totals, order closure and table release commit together or not at all.
func (s *PaymentService) ProcessPayment(ctx context.Context, actor Actor, orderID uint, req PaymentRequest) (*PaymentResult, []Event, error) {
	if err := Authorize(actor, CapProcessPayment); err != nil {
		return nil, nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, nil, newError(KindValidationFailed, "amount must be greater than zero")
	}
	if !req.TenderType.Valid() {
		return nil, nil, newError(KindValidationFailed, "invalid tender type %q", req.TenderType)
	}

	result := &PaymentResult{}
	var order *models.Order
	var released bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if order, err = lockOrder(tx, orderID); err != nil {
			return err
		}
		switch order.State {
		case models.OrderPaid:
			return newError(KindInvalidState, "order %d is already paid", order.ID)
		case models.OrderCancelled:
			return newError(KindInvalidState, "order %d is cancelled", order.ID)
		}

		shift, err := lockOpenShift(tx)
		if err != nil {
			return err
		}

		paid, err := totalPaid(tx, order.ID)
		if err != nil {
			return err
		}
		remaining := order.Total.Sub(paid)
		if req.Amount.GreaterThan(remaining) {
			return newError(KindAmountExceedsBalance, "amount %s exceeds remaining balance %s",
				req.Amount.StringFixed(2), remaining.StringFixed(2))
		}

		payment := models.Payment{
			OrderID:           order.ID,
			ShiftID:           shift.ID,
			ProcessedByUserID: actor.UserID,
			Amount:            req.Amount,
			TenderType:        req.TenderType,
			Reference:         req.Reference,
			Notes:             req.Notes,
			IsPartial:         req.Partial || req.Amount.LessThan(remaining),
			CreatedAt:         time.Now(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		if err := s.register.RecordSettlement(tx, shift.ID, req.Amount, req.TenderType); err != nil {
			return err
		}

		result.Payment = payment
		result.TotalPaid = paid.Add(req.Amount)
		result.Remaining = order.Total.Sub(result.TotalPaid)
		if result.TotalPaid.LessThan(order.Total) {
			return nil
		}

		result.OrderFullySettled = true
		now := time.Now()
		if err := guardedUpdate(tx, &models.Order{}, order.ID, order.State, map[string]interface{}{
			"state":     models.OrderPaid,
			"closed_at": now,
		}); err != nil {
			return err
		}
		order.State = models.OrderPaid
		order.ClosedAt = &now

		released, err = releaseIfIdle(tx, order.TableID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"amount":    req.Amount.String(),
		"tender":    req.TenderType,
		"remaining": result.Remaining.String(),
		"settled":   result.OrderFullySettled,
	}).Info("payment processed")

	events := []Event{newEvent(EventPaymentProcessed, "order", order.ID, result)}
	if result.OrderFullySettled {
		events = append(events, newEvent(EventOrderUpdated, "order", order.ID, order))
	}
	if released {
		events = append(events, tableReleased(order.TableID))
	}
	return result, events, nil
}

// CloseTableWithoutOrder releases a table that never produced an order (walk-outs, cleaning...).
func (s *PaymentService) CloseTableWithoutOrder(ctx context.Context, actor Actor, tableID uint, reason models.TableClosureReason, notes string) (*models.TableClosure, []Event, error) {
	if err := Authorize(actor, CapCloseTable); err != nil {
		return nil, nil, err
	}
	if !reason.Valid() {
		return nil, nil, newError(KindValidationFailed, "invalid closure reason %q", reason)
	}

	var closure models.TableClosure
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		table, err := lockTable(tx, tableID)
		if err != nil {
			return err
		}
		active, err := activeOrderCount(tx, table.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return newError(KindInvalidState, "table %s still has %d open orders", table.Label, active)
		}

		closure = models.TableClosure{
			TableID:   table.ID,
			UserID:    actor.UserID,
			Reason:    reason,
			Notes:     notes,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(&closure).Error; err != nil {
			return fmt.Errorf("failed to record table closure: %w", err)
		}
		return setTableStatus(tx, table, models.TableAvailable)
	})
	if err != nil {
		return nil, nil, err
	}
	return &closure, []Event{tableReleased(tableID)}, nil
}

// ListPayments returns an order's payments with the current balance.
func (s *PaymentService) ListPayments(ctx context.Context, orderID uint) (*PaymentSummary, error) {
	db := s.db.WithContext(ctx)

	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		return nil, notFoundOr(err, "order", orderID)
	}
	var payments []models.Payment
	if err := db.Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	return &PaymentSummary{
		OrderID:   order.ID,
		Total:     order.Total,
		TotalPaid: paid,
		Remaining: order.Total.Sub(paid),
		Payments:  payments,
	}, nil
}
