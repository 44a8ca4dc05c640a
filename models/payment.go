package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TenderType string

const (
	TenderCash     TenderType = "cash"
	TenderCard     TenderType = "card"
	TenderTransfer TenderType = "transfer"
	TenderOther    TenderType = "other"
)

func (t TenderType) Valid() bool {
	switch t {
	case TenderCash, TenderCard, TenderTransfer, TenderOther:
		return true
	}
	return false
}

// Payment represents one tender applied to an order. Rows are append-only.
type Payment struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	OrderID           uint               `gorm:"not null;index" json:"order_id"`
	ShiftID           uint               `gorm:"not null;index" json:"shift_id"`
	Shift             *CashRegisterShift `gorm:"foreignKey:ShiftID" json:"-"`
	ProcessedByUserID uint               `gorm:"not null" json:"processed_by_user_id"`
	Amount            decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"amount"`
	TenderType        TenderType         `gorm:"type:varchar(20);not null" json:"tender_type"`
	Reference         string             `gorm:"type:varchar(100)" json:"reference"`
	Notes             string             `gorm:"type:text" json:"notes"`
	IsPartial         bool               `gorm:"not null" json:"is_partial"`
	CreatedAt         time.Time          `gorm:"not null" json:"created_at"`
}
