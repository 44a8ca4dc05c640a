package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RestaurantSettings struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	RestaurantName string          `gorm:"type:varchar(100);not null" json:"restaurant_name"`
	ServicePercent decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"service_percent"`
	ServiceActive  bool            `gorm:"not null" json:"service_active"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"`
	Timezone       string          `gorm:"type:varchar(50)" json:"timezone"`
	CreatedAt      time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null" json:"updated_at"`
}
