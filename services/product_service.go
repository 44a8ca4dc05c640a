package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

type ProductInput struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Category        string          `json:"category"`
	Available       *bool           `json:"available"`
	StockControlled *bool           `json:"stock_controlled"`
	StockQuantity   int             `json:"stock_quantity"`
	PrepMinutes     int             `json:"prep_minutes"`
}

type ProductUpdate struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	Category        *string          `json:"category"`
	Available       *bool            `json:"available"`
	StockControlled *bool            `json:"stock_controlled"`
	PrepMinutes     *int             `json:"prep_minutes"`
}

type ProductFilter struct {
	Category      string
	AvailableOnly bool
}

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func (s *ProductService) Create(ctx context.Context, actor Actor, in ProductInput) (*models.Product, error) {
	if err := Authorize(actor, CapManageCatalog); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	category := strings.ToLower(strings.TrimSpace(in.Category))
	switch {
	case name == "":
		return nil, newError(KindValidationFailed, "product name is required")
	case category == "":
		return nil, newError(KindValidationFailed, "product category is required")
	case in.UnitPrice.IsNegative():
		return nil, newError(KindValidationFailed, "unit price cannot be negative")
	case in.StockQuantity < 0:
		return nil, newError(KindValidationFailed, "stock quantity cannot be negative")
	}

	product := models.Product{
		Name:            name,
		Description:     in.Description,
		UnitPrice:       in.UnitPrice,
		Category:        category,
		Available:       boolOr(in.Available, true),
		StockControlled: boolOr(in.StockControlled, true),
		StockQuantity:   in.StockQuantity,
		PrepMinutes:     in.PrepMinutes,
	}
	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// Update never touches existing order items; their price is a snapshot.
func (s *ProductService) Update(ctx context.Context, actor Actor, id uint, in ProductUpdate) (*models.Product, error) {
	if err := Authorize(actor, CapManageCatalog); err != nil {
		return nil, err
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, newError(KindValidationFailed, "unit price cannot be negative")
	}

	db := s.db.WithContext(ctx)
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		return nil, notFoundOr(err, "product", id)
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, newError(KindValidationFailed, "product name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.UnitPrice != nil {
		updates["unit_price"] = *in.UnitPrice
	}
	if in.Category != nil {
		updates["category"] = strings.ToLower(strings.TrimSpace(*in.Category))
	}
	if in.Available != nil {
		updates["available"] = *in.Available
	}
	if in.StockControlled != nil {
		updates["stock_controlled"] = *in.StockControlled
	}
	if in.PrepMinutes != nil {
		updates["prep_minutes"] = *in.PrepMinutes
	}
	if len(updates) == 0 {
		return &product, nil
	}

	if err := db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if err := db.First(&product, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload product: %w", err)
	}
	return &product, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	return &product, nil
}

func (s *ProductService) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	q := s.db.WithContext(ctx)
	if filter.Category != "" {
		q = q.Where("category = ?", strings.ToLower(filter.Category))
	}
	if filter.AvailableOnly {
		q = q.Where("available = ?", true)
	}

	var products []models.Product
	if err := q.Order("category ASC, name ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Categories lists the distinct categories in the catalog, sorted.
func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	categories := []string{}
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Deactivate is the catalog delete. The row stays because order items and
// stock movements reference it; it just stops being orderable.
func (s *ProductService) Deactivate(ctx context.Context, actor Actor, id uint) (*models.Product, error) {
	if err := Authorize(actor, CapManageCatalog); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		return nil, notFoundOr(err, "product", id)
	}
	if !product.Available {
		return &product, nil
	}
	if err := db.Model(&product).Update("available", false).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate product: %w", err)
	}
	product.Available = false
	return &product, nil
}
