package models

import "time"

type StockMovementKind string

const (
	MovementSale         StockMovementKind = "sale"
	MovementCancellation StockMovementKind = "cancellation"
	MovementRestock      StockMovementKind = "restock"
	MovementAdjustment   StockMovementKind = "adjustment"
)

// StockMovement -> ledger perubahan stok, Quantity negatif untuk keluar
type StockMovement struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	ProductID   uint              `gorm:"not null;index" json:"product_id"`
	Kind        StockMovementKind `gorm:"type:varchar(20);not null" json:"kind"`
	Quantity    int               `gorm:"not null" json:"quantity"`
	StockBefore int               `gorm:"not null" json:"stock_before"`
	StockAfter  int               `gorm:"not null" json:"stock_after"`
	OrderID     *uint             `gorm:"index" json:"order_id,omitempty"`
	UserID      uint              `json:"user_id"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}
