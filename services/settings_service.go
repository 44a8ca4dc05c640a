package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// SettingsService is the configuration provider for service fee and restaurant info.
type SettingsService struct {
	db *gorm.DB
}

func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

type SettingsUpdate struct {
	RestaurantName *string          `json:"restaurant_name"`
	ServicePercent *decimal.Decimal `json:"service_percent"`
	ServiceActive  *bool            `json:"service_active"`
	Currency       *string          `json:"currency"`
	Timezone       *string          `json:"timezone"`
}

func defaultSettings() models.RestaurantSettings {
	return models.RestaurantSettings{
		RestaurantName: "Restaurant",
		ServicePercent: decimal.NewFromInt(10),
		ServiceActive:  true,
		Currency:       "MXN",
		Timezone:       "America/Mexico_City",
	}
}

func currentSettings(tx *gorm.DB) (*models.RestaurantSettings, error) {
	var settings models.RestaurantSettings
	err := tx.Order("id ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = defaultSettings()
		if err := tx.Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("failed to create default settings: %w", err)
		}
		return &settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

// serviceFeePercent is read once at order creation and frozen on the order.
func serviceFeePercent(tx *gorm.DB) (decimal.Decimal, error) {
	settings, err := currentSettings(tx)
	if err != nil {
		return decimal.Zero, err
	}
	if !settings.ServiceActive {
		return decimal.Zero, nil
	}
	return settings.ServicePercent, nil
}

func (s *SettingsService) Current(ctx context.Context) (*models.RestaurantSettings, error) {
	return currentSettings(s.db.WithContext(ctx))
}

func (s *SettingsService) Update(ctx context.Context, actor Actor, in SettingsUpdate) (*models.RestaurantSettings, error) {
	if err := Authorize(actor, CapManageSettings); err != nil {
		return nil, err
	}
	if in.ServicePercent != nil && (in.ServicePercent.IsNegative() || in.ServicePercent.GreaterThan(hundred)) {
		return nil, newError(KindValidationFailed, "service percent must be between 0 and 100")
	}
	if in.Currency != nil && len(strings.TrimSpace(*in.Currency)) != 3 {
		return nil, newError(KindValidationFailed, "currency must be a 3-letter code")
	}
	if in.RestaurantName != nil && strings.TrimSpace(*in.RestaurantName) == "" {
		return nil, newError(KindValidationFailed, "restaurant name cannot be empty")
	}

	var settings *models.RestaurantSettings
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := currentSettings(tx)
		if err != nil {
			return err
		}
		if in.RestaurantName != nil {
			current.RestaurantName = strings.TrimSpace(*in.RestaurantName)
		}
		if in.ServicePercent != nil {
			current.ServicePercent = *in.ServicePercent
		}
		if in.ServiceActive != nil {
			current.ServiceActive = *in.ServiceActive
		}
		if in.Currency != nil {
			current.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
		}
		if in.Timezone != nil {
			current.Timezone = *in.Timezone
		}
		if err := tx.Save(current).Error; err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		settings = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}
