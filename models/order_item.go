package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemState string

const (
	ItemPending       ItemState = "pending"
	ItemKitchenSent   ItemState = "kitchen_sent"
	ItemInPreparation ItemState = "in_preparation"
	ItemReady         ItemState = "ready"
	ItemDelivered     ItemState = "delivered"
	ItemCancelled     ItemState = "cancelled"
)

// BillableItemStates -> item yang dihitung ke subtotal order
var BillableItemStates = []ItemState{
	ItemPending, ItemKitchenSent, ItemInPreparation, ItemReady, ItemDelivered,
}

func (s ItemState) Billable() bool {
	return s != ItemCancelled && s != ""
}

// Cancellable -> item yang sudah ready/delivered dianggap sudah dikonsumsi
func (s ItemState) Cancellable() bool {
	return s == ItemPending || s == ItemKitchenSent || s == ItemInPreparation
}

type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`
	// Order tidak di-serialize supaya tidak nested berulang
	Order            *Order          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductID        uint            `gorm:"not null;index" json:"product_id"`
	Product          *Product        `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineSubtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_subtotal"`
	State            ItemState       `gorm:"type:varchar(20);not null;index" json:"state"`
	Notes            string          `gorm:"type:text" json:"notes"`
	PrintedToKitchen bool            `gorm:"not null" json:"printed_to_kitchen"`
	KitchenSentAt    *time.Time      `json:"kitchen_sent_at,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

type CancellationReason string

const (
	CancelCustomerCancelled  CancellationReason = "customer_cancelled"
	CancelProductUnavailable CancellationReason = "product_unavailable"
	CancelOrderError         CancellationReason = "order_error"
	CancelExcessiveDelay     CancellationReason = "excessive_delay"
	CancelOther              CancellationReason = "other"
)

func (r CancellationReason) Valid() bool {
	switch r {
	case CancelCustomerCancelled, CancelProductUnavailable, CancelOrderError, CancelExcessiveDelay, CancelOther:
		return true
	}
	return false
}

// OrderCancellation -> audit pembatalan, append-only dan tidak pernah di-update
type OrderCancellation struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	OrderItemID       uint               `gorm:"not null;index" json:"order_item_id"`
	OrderID           uint               `gorm:"not null;index" json:"order_id"`
	UserID            uint               `gorm:"not null" json:"user_id"`
	Reason            CancellationReason `gorm:"type:varchar(30);not null" json:"reason"`
	Notes             string             `gorm:"type:text" json:"notes"`
	QuantityCancelled int                `gorm:"not null" json:"quantity_cancelled"`
	CreatedAt         time.Time          `gorm:"not null" json:"created_at"`
}
