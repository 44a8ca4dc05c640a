package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShiftSummary struct {
	Shift        *models.CashRegisterShift `json:"shift"`
	OpeningFloat decimal.Decimal           `json:"opening_float"`
	CashTotal    decimal.Decimal           `json:"cash_total"`
	CardTotal    decimal.Decimal           `json:"card_total"`
	OtherTotal   decimal.Decimal           `json:"other_total"`
	GrossTotal   decimal.Decimal           `json:"gross_total"`
	ExpectedCash decimal.Decimal           `json:"expected_cash"`
	CountedCash  decimal.Decimal           `json:"counted_cash"`
	Variance     decimal.Decimal           `json:"variance"`
	PaymentCount int64                     `json:"payment_count"`
}

type ShiftFilter struct {
	CashierUserID uint
	From          *time.Time
	To            *time.Time
	Limit         int
}

// CashRegisterService is the cash register ledger. At most one shift is open
// system-wide; the unique open_marker index is the final arbiter.
type CashRegisterService struct {
	db *gorm.DB
}

func NewCashRegisterService(db *gorm.DB) *CashRegisterService {
	return &CashRegisterService{db: db}
}

func (s *CashRegisterService) OpenShift(ctx context.Context, actor Actor, openingFloat decimal.Decimal, notes string) (*models.CashRegisterShift, []Event, error) {
	if err := Authorize(actor, CapOpenShift); err != nil {
		return nil, nil, err
	}
	if openingFloat.IsNegative() {
		return nil, nil, newError(KindValidationFailed, "opening float cannot be negative")
	}

	marker := 1
	shift := models.CashRegisterShift{
		CashierUserID: actor.UserID,
		State:         models.ShiftOpen,
		OpenMarker:    &marker,
		OpeningFloat:  openingFloat,
		CashTotal:     decimal.Zero,
		CardTotal:     decimal.Zero,
		GrossTotal:    decimal.Zero,
		OpeningNotes:  notes,
		OpenedAt:      time.Now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.CashRegisterShift{}).Where("state = ?", models.ShiftOpen).Count(&open).Error; err != nil {
			return fmt.Errorf("failed to check open shift: %w", err)
		}
		if open > 0 {
			return newError(KindShiftAlreadyOpen, "a cash register shift is already open")
		}
		if err := tx.Create(&shift).Error; err != nil {
			// a second insert that got past the check above hits the unique index
			if isUniqueViolation(err) {
				return newError(KindShiftAlreadyOpen, "a cash register shift is already open")
			}
			return fmt.Errorf("failed to open shift: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"shift_id":      shift.ID,
		"cashier":       actor.UserID,
		"opening_float": openingFloat.String(),
	}).Info("cash register shift opened")
	return &shift, []Event{newEvent(EventShiftOpened, "shift", shift.ID, shift)}, nil
}

// CloseShift closes an open shift and records the variance between counted and expected cash.
// Negative variance is a shortage, positive an overage; neither is corrected.
func (s *CashRegisterService) CloseShift(ctx context.Context, actor Actor, shiftID uint, counted decimal.Decimal, notes string) (*ShiftSummary, []Event, error) {
	if err := Authorize(actor, CapCloseShift); err != nil {
		return nil, nil, err
	}
	if counted.IsNegative() {
		return nil, nil, newError(KindValidationFailed, "counted cash cannot be negative")
	}

	var summary *ShiftSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shift, err := lockShift(tx, shiftID)
		if err != nil {
			return err
		}
		if shift.State != models.ShiftOpen {
			return newError(KindInvalidState, "shift %d is already closed", shift.ID)
		}

		expected := shift.OpeningFloat.Add(shift.CashTotal)
		variance := counted.Sub(expected)
		now := time.Now()
		res := tx.Model(&models.CashRegisterShift{}).
			Where("id = ? AND state = ?", shift.ID, models.ShiftOpen).
			Updates(map[string]interface{}{
				"state":         models.ShiftClosed,
				"open_marker":   nil,
				"closing_count": counted,
				"expected_cash": expected,
				"variance":      variance,
				"closing_notes": notes,
				"closed_at":     now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to close shift: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return newError(KindConcurrencyConflict, "shift %d changed concurrently, retry", shift.ID)
		}

		shift.State = models.ShiftClosed
		shift.OpenMarker = nil
		shift.ClosingCount = decimal.NewNullDecimal(counted)
		shift.ExpectedCash = decimal.NewNullDecimal(expected)
		shift.Variance = decimal.NewNullDecimal(variance)
		shift.ClosingNotes = notes
		shift.ClosedAt = &now

		summary, err = buildSummary(tx, shift)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"shift_id": shiftID,
		"gross":    summary.GrossTotal.String(),
		"variance": summary.Variance.String(),
	}).Info("cash register shift closed")
	return summary, []Event{newEvent(EventShiftClosed, "shift", shiftID, summary)}, nil
}

// RecordSettlement adds a payment to the shift buckets. Transfer and other
// tenders only count toward the gross total.
func (s *CashRegisterService) RecordSettlement(tx *gorm.DB, shiftID uint, amount decimal.Decimal, tender models.TenderType) error {
	shift, err := lockShift(tx, shiftID)
	if err != nil {
		return err
	}
	if shift.State != models.ShiftOpen {
		return newError(KindNoOpenShift, "shift %d is not open", shift.ID)
	}

	updates := map[string]interface{}{
		"gross_total": shift.GrossTotal.Add(amount),
	}
	switch tender {
	case models.TenderCash:
		updates["cash_total"] = shift.CashTotal.Add(amount)
	case models.TenderCard:
		updates["card_total"] = shift.CardTotal.Add(amount)
	}

	res := tx.Model(&models.CashRegisterShift{}).
		Where("id = ? AND state = ?", shift.ID, models.ShiftOpen).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update shift totals: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(KindConcurrencyConflict, "shift %d changed concurrently, retry", shift.ID)
	}
	return nil
}

// CurrentShift returns the open shift or NoOpenShift.
func (s *CashRegisterService) CurrentShift(ctx context.Context) (*models.CashRegisterShift, error) {
	var shift models.CashRegisterShift
	err := s.db.WithContext(ctx).Where("state = ?", models.ShiftOpen).First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(KindNoOpenShift, "no cash register shift is open")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current shift: %w", err)
	}
	return &shift, nil
}

func (s *CashRegisterService) GetShift(ctx context.Context, id uint) (*ShiftSummary, error) {
	db := s.db.WithContext(ctx)
	var shift models.CashRegisterShift
	if err := db.First(&shift, id).Error; err != nil {
		return nil, notFoundOr(err, "shift", id)
	}
	return buildSummary(db, &shift)
}

func (s *CashRegisterService) ListShifts(ctx context.Context, filter ShiftFilter) ([]models.CashRegisterShift, error) {
	q := s.db.WithContext(ctx)
	if filter.CashierUserID != 0 {
		q = q.Where("cashier_user_id = ?", filter.CashierUserID)
	}
	if filter.From != nil {
		q = q.Where("opened_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("opened_at <= ?", *filter.To)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	var shifts []models.CashRegisterShift
	if err := q.Order("opened_at DESC, id DESC").Limit(limit).Find(&shifts).Error; err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

// ShiftPayments lists a shift's payments for the shift export.
func (s *CashRegisterService) ShiftPayments(ctx context.Context, shiftID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := s.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC, id ASC").
		Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list shift payments: %w", err)
	}
	return payments, nil
}

func lockShift(tx *gorm.DB, id uint) (*models.CashRegisterShift, error) {
	var shift models.CashRegisterShift
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&shift, id).Error; err != nil {
		return nil, notFoundOr(err, "shift", id)
	}
	return &shift, nil
}

func lockOpenShift(tx *gorm.DB) (*models.CashRegisterShift, error) {
	var shift models.CashRegisterShift
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("state = ?", models.ShiftOpen).
		First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(KindNoOpenShift, "no cash register shift is open")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load open shift: %w", err)
	}
	return &shift, nil
}

func buildSummary(tx *gorm.DB, shift *models.CashRegisterShift) (*ShiftSummary, error) {
	var count int64
	if err := tx.Model(&models.Payment{}).Where("shift_id = ?", shift.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count shift payments: %w", err)
	}

	expected := shift.OpeningFloat.Add(shift.CashTotal)
	summary := &ShiftSummary{
		Shift:        shift,
		OpeningFloat: shift.OpeningFloat,
		CashTotal:    shift.CashTotal,
		CardTotal:    shift.CardTotal,
		OtherTotal:   shift.GrossTotal.Sub(shift.CashTotal).Sub(shift.CardTotal),
		GrossTotal:   shift.GrossTotal,
		ExpectedCash: expected,
		PaymentCount: count,
	}
	if shift.ClosingCount.Valid {
		summary.CountedCash = shift.ClosingCount.Decimal
	}
	if shift.Variance.Valid {
		summary.Variance = shift.Variance.Decimal
	}
	return summary, nil
}
