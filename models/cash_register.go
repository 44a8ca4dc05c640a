package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ShiftState string

const (
	ShiftOpen   ShiftState = "open"
	ShiftClosed ShiftState = "closed"
)

// CashRegisterShift -> satu siklus buka/tutup kasir.
//
// OpenMarker bernilai 1 selama shift open dan NULL setelah ditutup. Unique index pada kolom ini
// membuat database sendiri yang menolak shift open kedua.
type CashRegisterShift struct {
	ID            uint                `gorm:"primaryKey" json:"id"`
	CashierUserID uint                `gorm:"not null;index" json:"cashier_user_id"`
	State         ShiftState          `gorm:"type:varchar(10);not null;index" json:"state"`
	OpenMarker    *int                `gorm:"uniqueIndex:idx_shift_open_marker" json:"-"`
	OpeningFloat  decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"opening_float"`
	ClosingCount  decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"closing_count"`
	CashTotal     decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"cash_total"`
	CardTotal     decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"card_total"`
	GrossTotal    decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"gross_total"`
	ExpectedCash  decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"expected_cash"`
	Variance      decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"variance"`
	OpeningNotes  string              `gorm:"type:text" json:"opening_notes"`
	ClosingNotes  string              `gorm:"type:text" json:"closing_notes"`
	OpenedAt      time.Time           `gorm:"not null" json:"opened_at"`
	ClosedAt      *time.Time          `json:"closed_at,omitempty"`
}
