package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Category        string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Available       bool            `gorm:"not null" json:"available"`
	StockControlled bool            `gorm:"not null" json:"stock_controlled"`
	StockQuantity   int             `gorm:"not null" json:"stock_quantity"`
	PrepMinutes     int             `json:"prep_minutes"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

// HasStockFor -> produk tanpa kontrol stok selalu dianggap cukup
func (p *Product) HasStockFor(quantity int) bool {
	return !p.StockControlled || p.StockQuantity >= quantity
}
