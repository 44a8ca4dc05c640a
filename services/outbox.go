package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

// OutboxWriter persists events so OutboxRelay can forward them to the broker.
type OutboxWriter struct {
	db *gorm.DB
}

func NewOutboxWriter(db *gorm.DB) *OutboxWriter {
	return &OutboxWriter{db: db}
}

func (w *OutboxWriter) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.Name, err)
	}
	row := models.OutboxEvent{
		Name:          event.Name,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       string(payload),
		CreatedAt:     time.Now(),
	}
	if err := w.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store outbox event: %w", err)
	}
	return nil
}
