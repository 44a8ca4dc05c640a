package models

import "time"

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

type Area struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Active      bool      `gorm:"not null" json:"active"`
	SortOrder   int       `json:"sort_order"`
	Tables      []Table   `gorm:"foreignKey:AreaID" json:"tables,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

// Table status disimpan untuk tampilan, sumber kebenarannya tetap order yang belum selesai.
type Table struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Label     string      `gorm:"type:varchar(50);not null;uniqueIndex:idx_table_label_area" json:"label"`
	AreaID    uint        `gorm:"not null;uniqueIndex:idx_table_label_area" json:"area_id"`
	Area      *Area       `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	Capacity  int         `json:"capacity"`
	Status    TableStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	Active    bool        `gorm:"not null" json:"active"`
	CreatedAt time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null" json:"updated_at"`
}

type TableClosureReason string

const (
	ClosureCustomerLeft TableClosureReason = "customer_left"
	ClosureAccident     TableClosureReason = "accident"
	ClosureCleaning     TableClosureReason = "cleaning"
	ClosureMaintenance  TableClosureReason = "maintenance"
	ClosureOther        TableClosureReason = "other"
)

func (r TableClosureReason) Valid() bool {
	switch r {
	case ClosureCustomerLeft, ClosureAccident, ClosureCleaning, ClosureMaintenance, ClosureOther:
		return true
	}
	return false
}

// TableClosure -> audit meja yang dilepas tanpa order, append-only
type TableClosure struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	TableID   uint               `gorm:"not null;index" json:"table_id"`
	UserID    uint               `gorm:"not null" json:"user_id"`
	Reason    TableClosureReason `gorm:"type:varchar(30);not null" json:"reason"`
	Notes     string             `gorm:"type:text" json:"notes"`
	CreatedAt time.Time          `gorm:"not null" json:"created_at"`
}
