package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderState string

const (
	OrderOpen          OrderState = "open"
	OrderSent          OrderState = "sent"
	OrderInPreparation OrderState = "in_preparation"
	OrderReady         OrderState = "ready"
	OrderDelivered     OrderState = "delivered"
	OrderPaid          OrderState = "paid"
	OrderCancelled     OrderState = "cancelled"
)

// Terminal -> paid dan cancelled tidak bisa berubah lagi
func (s OrderState) Terminal() bool {
	return s == OrderPaid || s == OrderCancelled
}

// NonTerminalOrderStates dipakai untuk query occupancy meja dan nomor split bill.
var NonTerminalOrderStates = []OrderState{
	OrderOpen, OrderSent, OrderInPreparation, OrderReady, OrderDelivered,
}

type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	OrderNumber    string          `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	TableID        uint            `gorm:"not null;index" json:"table_id"`
	Table          *Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	ServerUserID   uint            `gorm:"not null;index" json:"server_user_id"`
	SequenceNumber int             `gorm:"not null" json:"sequence_number"`
	State          OrderState      `gorm:"type:varchar(20);not null;index" json:"state"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ServicePercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"service_percent"`
	ServiceAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"service_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Notes          string          `gorm:"type:text" json:"notes"`
	OpenedAt       time.Time       `gorm:"not null" json:"opened_at"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payments       []Payment       `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}
