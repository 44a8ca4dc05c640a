package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRef links a stock movement to whatever caused it.
type StockRef struct {
	OrderID *uint
	UserID  uint
	// Index of the item in the request, for per-item errors
	Index int
}

// InventoryLedger owns product stock. Every change writes a StockMovement row
// inside the caller's transaction.
type InventoryLedger struct {
	db *gorm.DB
}

func NewInventoryLedger(db *gorm.DB) *InventoryLedger {
	return &InventoryLedger{db: db}
}

func lockProduct(tx *gorm.DB, productID uint, index int) (*models.Product, error) {
	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error; err != nil {
		err = notFoundOr(err, "product", productID)
		if se, ok := err.(*ServiceError); ok {
			se.Index = index
		}
		return nil, err
	}
	return &product, nil
}

// Reserve validates availability and decrements stock for stock-controlled products.
// The returned product carries the price to snapshot onto the order item.
func (l *InventoryLedger) Reserve(tx *gorm.DB, productID uint, quantity int, ref StockRef) (*models.Product, error) {
	if quantity < 1 {
		return nil, itemError(KindValidationFailed, ref.Index, "quantity must be at least 1")
	}

	product, err := lockProduct(tx, productID, ref.Index)
	if err != nil {
		return nil, err
	}
	if !product.Available {
		return nil, itemError(KindValidationFailed, ref.Index, "product %s is not available", product.Name)
	}
	if !product.StockControlled {
		return product, nil
	}
	if !product.HasStockFor(quantity) {
		return nil, itemError(KindInsufficientStock, ref.Index,
			"insufficient stock for %s: available %d, requested %d", product.Name, product.StockQuantity, quantity)
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", product.ID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reserve stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, itemError(KindInsufficientStock, ref.Index, "insufficient stock for %s", product.Name)
	}

	before := product.StockQuantity
	product.StockQuantity -= quantity
	if err := recordMovement(tx, product.ID, models.MovementSale, -quantity, before, product.StockQuantity, ref); err != nil {
		return nil, err
	}
	return product, nil
}

// Release puts stock back, e.g. after a cancellation. No upper bound is applied.
func (l *InventoryLedger) Release(tx *gorm.DB, productID uint, quantity int, ref StockRef) error {
	return l.increment(tx, productID, quantity, models.MovementCancellation, ref)
}

func (l *InventoryLedger) increment(tx *gorm.DB, productID uint, quantity int, kind models.StockMovementKind, ref StockRef) error {
	product, err := lockProduct(tx, productID, ref.Index)
	if err != nil {
		return err
	}
	if !product.StockControlled {
		return nil
	}

	if err := tx.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", quantity)).Error; err != nil {
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return recordMovement(tx, product.ID, kind, quantity, product.StockQuantity, product.StockQuantity+quantity, ref)
}

// Restock adds stock by hand.
func (l *InventoryLedger) Restock(ctx context.Context, actor Actor, productID uint, quantity int) (*models.Product, error) {
	if err := Authorize(actor, CapManageCatalog); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, newError(KindValidationFailed, "restock quantity must be at least 1")
	}

	var product *models.Product
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := lockProduct(tx, productID, -1)
		if err != nil {
			return err
		}
		if !p.StockControlled {
			return newError(KindValidationFailed, "product %s does not track stock", p.Name)
		}
		if err := l.increment(tx, productID, quantity, models.MovementRestock, StockRef{UserID: actor.UserID, Index: -1}); err != nil {
			return err
		}
		product = p
		product.StockQuantity += quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (l *InventoryLedger) Movements(ctx context.Context, productID uint, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var movements []models.StockMovement
	if err := l.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, nil
}

func recordMovement(tx *gorm.DB, productID uint, kind models.StockMovementKind, quantity, before, after int, ref StockRef) error {
	movement := models.StockMovement{
		ProductID:   productID,
		Kind:        kind,
		Quantity:    quantity,
		StockBefore: before,
		StockAfter:  after,
		OrderID:     ref.OrderID,
		UserID:      ref.UserID,
		CreatedAt:   time.Now(),
	}
	if err := tx.Create(&movement).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}
