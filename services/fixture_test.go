package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	admin   = Actor{UserID: 1, Role: RoleAdmin}
	cashier = Actor{UserID: 2, Role: RoleCashier}
	waiter  = Actor{UserID: 3, Role: RoleWaiter}
	cook    = Actor{UserID: 4, Role: RoleCook}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func boolPtr(b bool) *bool { return &b }

// newTestDB -> sqlite in-memory, satu database per test
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// newFileTestDB -> sqlite file dengan WAL dan beberapa koneksi, untuk test yang
// butuh transaksi benar-benar paralel. _txlock=immediate membuat writer antre
// lewat busy_timeout alih-alih gagal saat upgrade lock.
func newFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "pos.db") + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	t    *testing.T
	ctx  context.Context
	db   *gorm.DB
	core *Core

	area   *models.Area
	table1 *models.Table
	table2 *models.Table

	// taco: $10, stock 10. soda: $2.50, stock 50. burger: $12.75, no stock control.
	taco   *models.Product
	soda   *models.Product
	burger *models.Product
}

func newFixture(t *testing.T, policy AddItemsPolicy) *fixture {
	t.Helper()
	return newFixtureOn(t, newTestDB(t), policy)
}

func newFixtureOn(t *testing.T, db *gorm.DB, policy AddItemsPolicy) *fixture {
	t.Helper()
	f := &fixture{t: t, ctx: context.Background(), db: db, core: NewCore(db, policy)}

	var err error
	f.area, err = f.core.Tables.CreateArea(f.ctx, admin, AreaInput{Name: "Terraza"})
	require.NoError(t, err)
	f.table1, _, err = f.core.Tables.CreateTable(f.ctx, admin, TableInput{Label: "T1", AreaID: f.area.ID})
	require.NoError(t, err)
	f.table2, _, err = f.core.Tables.CreateTable(f.ctx, admin, TableInput{Label: "T2", AreaID: f.area.ID})
	require.NoError(t, err)

	f.taco = f.product("Taco al pastor", "food", "10", true, 10)
	f.soda = f.product("Soda", "drinks", "2.50", true, 50)
	f.burger = f.product("Burger", "food", "12.75", false, 0)
	return f
}

func (f *fixture) product(name, category, price string, controlled bool, stock int) *models.Product {
	f.t.Helper()
	p, err := f.core.Products.Create(f.ctx, admin, ProductInput{
		Name:            name,
		Category:        category,
		UnitPrice:       dec(price),
		StockControlled: boolPtr(controlled),
		StockQuantity:   stock,
	})
	require.NoError(f.t, err)
	return p
}

func (f *fixture) setServicePercent(pct string) {
	f.t.Helper()
	p := dec(pct)
	_, err := f.core.Settings.Update(f.ctx, admin, SettingsUpdate{ServicePercent: &p})
	require.NoError(f.t, err)
}

func (f *fixture) openShift() *models.CashRegisterShift {
	f.t.Helper()
	shift, _, err := f.core.CashRegister.OpenShift(f.ctx, cashier, dec("500"), "")
	require.NoError(f.t, err)
	return shift
}

func (f *fixture) createOrder(tableID uint, items ...OrderItemInput) *models.Order {
	f.t.Helper()
	order, _, err := f.core.Orders.CreateOrder(f.ctx, waiter, CreateOrderRequest{TableID: tableID, Items: items})
	require.NoError(f.t, err)
	return order
}

func (f *fixture) reloadOrder(id uint) *models.Order {
	f.t.Helper()
	order, err := f.core.Orders.GetOrder(f.ctx, id)
	require.NoError(f.t, err)
	return order
}

func (f *fixture) reloadProduct(id uint) *models.Product {
	f.t.Helper()
	p, err := f.core.Products.Get(f.ctx, id)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) reloadTable(id uint) *models.Table {
	f.t.Helper()
	table, err := f.core.Tables.GetTable(f.ctx, id)
	require.NoError(f.t, err)
	return table
}

func item(productID uint, qty int) OrderItemInput {
	return OrderItemInput{ProductID: productID, Quantity: qty}
}

func eventNames(events []Event) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Name)
	}
	return names
}

// requireTotalsConsistent checks total == subtotal + service and service == subtotal * pct / 100
// against the billable items stored for the order.
func requireTotalsConsistent(t *testing.T, order *models.Order) {
	t.Helper()
	sum := decimal.Zero
	for _, it := range order.Items {
		if it.State.Billable() {
			sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		}
	}
	require.Equal(t, sum.StringFixed(2), order.Subtotal.StringFixed(2), "subtotal")
	require.Equal(t, order.Subtotal.Mul(order.ServicePercent).Div(decimal.NewFromInt(100)).StringFixed(2),
		order.ServiceAmount.StringFixed(2), "service amount")
	require.Equal(t, order.Subtotal.Add(order.ServiceAmount).StringFixed(2), order.Total.StringFixed(2), "total")
}
