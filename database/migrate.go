package database

import (
	"fmt"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

// Models is the full schema in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Area{},
		&models.Table{},
		&models.Product{},
		&models.RestaurantSettings{},
		&models.CashRegisterShift{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCancellation{},
		&models.Payment{},
		&models.TableClosure{},
		&models.StockMovement{},
		&models.OutboxEvent{},
	}
}

// requiredIndexes enforce invariants, not just lookup speed.
var requiredIndexes = []struct {
	model interface{}
	name  string
}{
	{&models.CashRegisterShift{}, "idx_shift_open_marker"},
	{&models.Table{}, "idx_table_label_area"},
	{&models.Order{}, "idx_orders_order_number"},
}

// Migrate runs AutoMigrate and verifies the unique indexes the services rely on.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to AutoMigrate: %w", err)
	}

	migrator := db.Migrator()
	for _, idx := range requiredIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}
		if err := migrator.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		utils.InfoLogger.Printf("Created missing index %s", idx.name)
	}

	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
