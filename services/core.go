package services

import "gorm.io/gorm"

// Core wires the POS services over one database handle.
type Core struct {
	Inventory    *InventoryLedger
	Tables       *TableService
	Settings     *SettingsService
	Products     *ProductService
	Orders       *OrderService
	CashRegister *CashRegisterService
	Payments     *PaymentService
	Reports      *ReportService
}

func NewCore(db *gorm.DB, policy AddItemsPolicy) *Core {
	inventory := NewInventoryLedger(db)
	register := NewCashRegisterService(db)
	return &Core{
		Inventory:    inventory,
		Tables:       NewTableService(db),
		Settings:     NewSettingsService(db),
		Products:     NewProductService(db),
		Orders:       NewOrderService(db, inventory, policy),
		CashRegister: register,
		Payments:     NewPaymentService(db, register),
		Reports:      NewReportService(db),
	}
}
