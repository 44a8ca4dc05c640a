package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// OutboxRelay polls outbox_events and forwards each event to the publisher (RabbitMQ).
type OutboxRelay struct {
	DB          *gorm.DB
	Publisher   Notifier
	Interval    time.Duration
	BatchSize   int
	MaxAttempts int
}

func NewOutboxRelay(db *gorm.DB, publisher Notifier) *OutboxRelay {
	return &OutboxRelay{
		DB:          db,
		Publisher:   publisher,
		Interval:    1 * time.Second,
		BatchSize:   100,
		MaxAttempts: 5,
	}
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil {
				utils.ErrorLogger.Errorf("outbox relay: %v", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// ProcessBatch forwards one batch and returns how many events were delivered.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	var rows []models.OutboxEvent
	if err := r.DB.WithContext(ctx).
		Where("processed = ? AND attempts < ?", false, r.MaxAttempts).
		Order("created_at ASC, id ASC").
		Limit(r.BatchSize).
		Find(&rows).Error; err != nil {
		return 0, err
	}

	delivered := 0
	for _, row := range rows {
		var event Event
		if err := json.Unmarshal([]byte(row.Payload), &event); err != nil {
			// a broken payload can never be delivered, mark it failed for good
			r.markFailed(ctx, row, err, r.MaxAttempts)
			continue
		}

		if err := r.Publisher.Notify(ctx, event); err != nil {
			r.markFailed(ctx, row, err, row.Attempts+1)
			continue
		}

		now := time.Now()
		if err := r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"processed":    true,
				"processed_at": now,
				"attempts":     row.Attempts + 1,
			}).Error; err != nil {
			return delivered, err
		}
		delivered++
	}

	if delivered > 0 {
		utils.InfoLogger.WithField("count", delivered).Info("outbox events relayed")
	}
	return delivered, nil
}

func (r *OutboxRelay) markFailed(ctx context.Context, row models.OutboxEvent, cause error, attempts int) {
	utils.ErrorLogger.WithFields(logrus.Fields{
		"outbox_id": row.ID,
		"event":     row.Name,
		"attempts":  attempts,
	}).Errorf("failed to relay event: %v", cause)

	if err := r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"attempts":   attempts,
			"last_error": cause.Error(),
		}).Error; err != nil {
		utils.ErrorLogger.Errorf("failed to record outbox failure: %v", err)
	}
}
