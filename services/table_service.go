package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TableService is the table/area directory. Occupancy is derived from
// non-terminal orders; the stored status is kept in sync inside order transactions.
type TableService struct {
	db *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

type AreaInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

type TableInput struct {
	Label    string `json:"label" binding:"required"`
	AreaID   uint   `json:"area_id" binding:"required"`
	Capacity int    `json:"capacity"`
}

func (s *TableService) CreateArea(ctx context.Context, actor Actor, in AreaInput) (*models.Area, error) {
	if err := Authorize(actor, CapManageTables); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newError(KindValidationFailed, "area name is required")
	}

	area := models.Area{
		Name:        name,
		Description: in.Description,
		Active:      true,
		SortOrder:   in.SortOrder,
	}
	if err := s.db.WithContext(ctx).Create(&area).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newError(KindValidationFailed, "area %q already exists", name)
		}
		return nil, fmt.Errorf("failed to create area: %w", err)
	}
	return &area, nil
}

type AreaUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
}

type TableUpdate struct {
	Label    *string `json:"label"`
	AreaID   *uint   `json:"area_id"`
	Capacity *int    `json:"capacity"`
}

func (s *TableService) UpdateArea(ctx context.Context, actor Actor, id uint, in AreaUpdate) (*models.Area, error) {
	if err := Authorize(actor, CapManageTables); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var area models.Area
	if err := db.Where("active = ?", true).First(&area, id).Error; err != nil {
		return nil, notFoundOr(err, "area", id)
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newError(KindValidationFailed, "area name cannot be empty")
		}
		updates["name"] = name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.SortOrder != nil {
		updates["sort_order"] = *in.SortOrder
	}
	if len(updates) == 0 {
		return &area, nil
	}

	if err := db.Model(&area).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, newError(KindValidationFailed, "area %q already exists", updates["name"])
		}
		return nil, fmt.Errorf("failed to update area: %w", err)
	}
	if err := db.First(&area, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload area: %w", err)
	}
	return &area, nil
}

// DeactivateArea hides the area and its tables. Rejected while any of its
// tables still carries a non-terminal order.
func (s *TableService) DeactivateArea(ctx context.Context, actor Actor, id uint) (*models.Area, []Event, error) {
	if err := Authorize(actor, CapManageTables); err != nil {
		return nil, nil, err
	}

	var area models.Area
	var tableIDs []uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&area, id).Error; err != nil {
			return notFoundOr(err, "area", id)
		}
		if !area.Active {
			return nil
		}
		if err := tx.Model(&models.Table{}).Where("area_id = ? AND active = ?", area.ID, true).
			Pluck("id", &tableIDs).Error; err != nil {
			return fmt.Errorf("failed to load area tables: %w", err)
		}
		if len(tableIDs) > 0 {
			var busy int64
			if err := tx.Model(&models.Order{}).
				Where("table_id IN ? AND state IN ?", tableIDs, models.NonTerminalOrderStates).
				Count(&busy).Error; err != nil {
				return fmt.Errorf("failed to count active orders: %w", err)
			}
			if busy > 0 {
				return newError(KindInvalidState, "area %s still has %d open orders", area.Name, busy)
			}
			if err := tx.Model(&models.Table{}).Where("id IN ?", tableIDs).
				Updates(map[string]interface{}{"active": false, "updated_at": time.Now()}).Error; err != nil {
				return fmt.Errorf("failed to deactivate area tables: %w", err)
			}
		}
		if err := tx.Model(&area).Updates(map[string]interface{}{"active": false, "updated_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("failed to deactivate area: %w", err)
		}
		area.Active = false
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events := make([]Event, 0, len(tableIDs))
	for _, tableID := range tableIDs {
		events = append(events, newEvent(EventTableUpdated, "table", tableID, map[string]interface{}{
			"table_id": tableID,
			"active":   false,
		}))
	}
	return &area, events, nil
}

func (s *TableService) ListAreas(ctx context.Context) ([]models.Area, error) {
	var areas []models.Area
	if err := s.db.WithContext(ctx).
		Preload("Tables", "active = ?", true).
		Where("active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	return areas, nil
}

func (s *TableService) CreateTable(ctx context.Context, actor Actor, in TableInput) (*models.Table, []Event, error) {
	if err := Authorize(actor, CapManageTables); err != nil {
		return nil, nil, err
	}
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, nil, newError(KindValidationFailed, "table label is required")
	}
	if in.Capacity < 0 {
		return nil, nil, newError(KindValidationFailed, "capacity cannot be negative")
	}

	var area models.Area
	if err := s.db.WithContext(ctx).First(&area, in.AreaID).Error; err != nil {
		return nil, nil, notFoundOr(err, "area", in.AreaID)
	}

	capacity := in.Capacity
	if capacity == 0 {
		capacity = 4
	}
	table := models.Table{
		Label:    label,
		AreaID:   area.ID,
		Capacity: capacity,
		Status:   models.TableAvailable,
		Active:   true,
	}
	if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, nil, newError(KindValidationFailed, "table %q already exists in area %s", label, area.Name)
		}
		return nil, nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &table, []Event{newEvent(EventTableUpdated, "table", table.ID, table)}, nil
}

func (s *TableService) UpdateTable(ctx context.Context, actor Actor, id uint, in TableUpdate) (*models.Table, []Event, error) {
	if err := Authorize(actor, CapManageTables); err != nil {
		return nil, nil, err
	}
	if in.Capacity != nil && *in.Capacity < 1 {
		return nil, nil, newError(KindValidationFailed, "capacity must be at least 1")
	}

	db := s.db.WithContext(ctx)
	var table models.Table
	if err := db.Where("active = ?", true).First(&table, id).Error; err != nil {
		return nil, nil, notFoundOr(err, "table", id)
	}

	updates := map[string]interface{}{}
	if in.Label != nil {
		label := strings.TrimSpace(*in.Label)
		if label == "" {
			return nil, nil, newError(KindValidationFailed, "table label cannot be empty")
		}
		updates["label"] = label
	}
	if in.AreaID != nil && *in.AreaID != table.AreaID {
		var area models.Area
		if err := db.Where("active = ?", true).First(&area, *in.AreaID).Error; err != nil {
			return nil, nil, notFoundOr(err, "area", *in.AreaID)
		}
		updates["area_id"] = area.ID
	}
	if in.Capacity != nil {
		updates["capacity"] = *in.Capacity
	}

	if len(updates) > 0 {
		if err := db.Model(&table).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, nil, newError(KindValidationFailed, "table label already exists in that area")
			}
			return nil, nil, fmt.Errorf("failed to update table: %w", err)
		}
	}
	updated, err := s.GetTable(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return updated, []Event{newEvent(EventTableUpdated, "table", updated.ID, updated)}, nil
}

// DeactivateTable takes a table off the floor plan. Tables with non-terminal
// orders are rejected; order history keeps pointing at the row.
func (s *TableService) DeactivateTable(ctx context.Context, actor Actor, id uint) (*models.Table, []Event, error) {
	if err := Authorize(actor, CapManageTables); err != nil {
		return nil, nil, err
	}

	var table *models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTable(tx, id)
		if err != nil {
			return err
		}
		table = t
		if !t.Active {
			return nil
		}
		active, err := activeOrderCount(tx, t.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return newError(KindInvalidState, "table %s still has %d open orders", t.Label, active)
		}
		if err := tx.Model(&models.Table{}).Where("id = ?", t.ID).Updates(map[string]interface{}{
			"active":     false,
			"status":     models.TableAvailable,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return fmt.Errorf("failed to deactivate table: %w", err)
		}
		t.Active = false
		t.Status = models.TableAvailable
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return table, []Event{newEvent(EventTableUpdated, "table", table.ID, table)}, nil
}

func (s *TableService) ListTables(ctx context.Context, areaID uint) ([]models.Table, error) {
	q := s.db.WithContext(ctx).Preload("Area").Where("active = ?", true)
	if areaID != 0 {
		q = q.Where("area_id = ?", areaID)
	}
	var tables []models.Table
	if err := q.Order("area_id ASC, label ASC").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

func (s *TableService) GetTable(ctx context.Context, id uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).Preload("Area").First(&table, id).Error; err != nil {
		return nil, notFoundOr(err, "table", id)
	}
	return &table, nil
}

// ReserveTable only accepts available tables.
func (s *TableService) ReserveTable(ctx context.Context, actor Actor, id uint) (*models.Table, []Event, error) {
	if err := Authorize(actor, CapReserveTable); err != nil {
		return nil, nil, err
	}

	var table *models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t, err := lockTable(tx, id)
		if err != nil {
			return err
		}
		if t.Status != models.TableAvailable {
			return newError(KindInvalidState, "table %s is %s", t.Label, t.Status)
		}
		if err := setTableStatus(tx, t, models.TableReserved); err != nil {
			return err
		}
		table = t
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return table, []Event{newEvent(EventTableUpdated, "table", table.ID, table)}, nil
}

func lockTable(tx *gorm.DB, id uint) (*models.Table, error) {
	var table models.Table
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&table, id).Error; err != nil {
		return nil, notFoundOr(err, "table", id)
	}
	return &table, nil
}

func activeOrderCount(tx *gorm.DB, tableID uint) (int64, error) {
	var count int64
	if err := tx.Model(&models.Order{}).
		Where("table_id = ? AND state IN ?", tableID, models.NonTerminalOrderStates).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active orders: %w", err)
	}
	return count, nil
}

func setTableStatus(tx *gorm.DB, table *models.Table, status models.TableStatus) error {
	if err := tx.Model(&models.Table{}).
		Where("id = ?", table.ID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error; err != nil {
		return fmt.Errorf("failed to update table %d status: %w", table.ID, err)
	}
	table.Status = status
	return nil
}

func markOccupied(tx *gorm.DB, table *models.Table) error {
	if table.Status == models.TableOccupied {
		return nil
	}
	return setTableStatus(tx, table, models.TableOccupied)
}

// releaseIfIdle frees the table when no non-terminal order remains on it.
func releaseIfIdle(tx *gorm.DB, tableID uint) (bool, error) {
	count, err := activeOrderCount(tx, tableID)
	if err != nil || count > 0 {
		return false, err
	}
	table, err := lockTable(tx, tableID)
	if err != nil {
		return false, err
	}
	if table.Status == models.TableAvailable {
		return false, nil
	}
	if err := setTableStatus(tx, table, models.TableAvailable); err != nil {
		return false, err
	}
	return true, nil
}
