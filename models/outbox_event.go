package models

import "time"

// OutboxEvent -> event domain yang menunggu dikirim ke broker oleh OutboxRelay
type OutboxEvent struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"type:varchar(50);not null;index" json:"name"`
	AggregateType string     `gorm:"type:varchar(30);not null" json:"aggregate_type"`
	AggregateID   uint       `gorm:"not null" json:"aggregate_id"`
	Payload       string     `gorm:"type:text;not null" json:"payload"`
	Processed     bool       `gorm:"not null;index" json:"processed"`
	Attempts      int        `gorm:"not null" json:"attempts"`
	LastError     string     `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;index" json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}
