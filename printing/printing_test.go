package printing

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-pos/models"
)

func orderItem(id uint, category string, qty int, price string) models.OrderItem {
	p := decimal.RequireFromString(price)
	return models.OrderItem{
		ID:           id,
		ProductID:    id * 10,
		Product:      &models.Product{ID: id * 10, Name: "Item " + category, Category: category},
		Quantity:     qty,
		UnitPrice:    p,
		LineSubtotal: p.Mul(decimal.NewFromInt(int64(qty))),
		State:        models.ItemKitchenSent,
	}
}

func TestRouterPrinterFor(t *testing.T) {
	r := NewRouter([]Printer{
		{Name: "Barra", Categories: []string{"drinks", " Cocktails "}},
		{Name: "Cocina caliente", Categories: []string{"food"}},
		{Name: "Caja", Receipt: true},
	})

	p, ok := r.PrinterFor("COCKTAILS")
	require.True(t, ok)
	assert.Equal(t, "Barra", p.Name)

	// kategori tanpa printer jatuh ke printer dapur
	p, ok = r.PrinterFor("desserts")
	require.True(t, ok)
	assert.Equal(t, "Cocina caliente", p.Name)

	p, ok = r.ReceiptPrinter()
	require.True(t, ok)
	assert.Equal(t, "Caja", p.Name)
}

func TestRouterFallbackOrder(t *testing.T) {
	withDefault := NewRouter([]Printer{
		{Name: "Kitchen"},
		{Name: "Expo", Default: true},
	})
	p, _ := withDefault.PrinterFor("x")
	assert.Equal(t, "Expo", p.Name)

	p, _ = NewRouter([]Printer{{Name: "Bar"}, {Name: "Main kitchen"}}).PrinterFor("x")
	assert.Equal(t, "Main kitchen", p.Name)

	p, _ = NewRouter([]Printer{{Name: "Bar"}, {Name: "Patio"}}).PrinterFor("x")
	assert.Equal(t, "Bar", p.Name)

	p, _ = NewRouter([]Printer{{Name: "Bar"}, {Name: "Kitchen"}}).ReceiptPrinter()
	assert.Equal(t, "Kitchen", p.Name)

	_, ok := NewRouter(nil).PrinterFor("food")
	assert.False(t, ok)
	_, ok = NewRouter(nil).ReceiptPrinter()
	assert.False(t, ok)
}

func TestRouterRoute(t *testing.T) {
	r := NewRouter([]Printer{
		{Name: "Bar", Categories: []string{"drinks"}},
		{Name: "Kitchen", Categories: []string{"food"}},
	})
	items := []models.OrderItem{
		orderItem(1, "food", 1, "10"),
		orderItem(2, "drinks", 2, "2.5"),
		orderItem(3, "food", 1, "8"),
		{ID: 4, ProductID: 40},
	}

	jobs, unassigned := r.Route(items)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Kitchen", jobs[0].Printer.Name)
	assert.Len(t, jobs[0].Items, 3)
	assert.Equal(t, uint(4), jobs[0].Items[2].ID)
	assert.Equal(t, "Bar", jobs[1].Printer.Name)
	assert.Len(t, jobs[1].Items, 1)
	assert.Empty(t, unassigned)

	jobs, unassigned = NewRouter(nil).Route(items)
	assert.Empty(t, jobs)
	assert.Len(t, unassigned, 4)
}

func testOrder() *models.Order {
	return &models.Order{
		ID:             5,
		OrderNumber:    "ORD-20261016-ABCD1234",
		TableID:        3,
		Table:          &models.Table{Label: "T3"},
		SequenceNumber: 2,
		Subtotal:       decimal.RequireFromString("1250"),
		ServicePercent: decimal.NewFromInt(10),
		ServiceAmount:  decimal.RequireFromString("125"),
		Total:          decimal.RequireFromString("1375"),
		Notes:          "birthday",
		OpenedAt:       time.Date(2026, 10, 16, 13, 5, 0, 0, time.Local),
		Items: []models.OrderItem{
			orderItem(1, "food", 2, "600"),
			orderItem(2, "drinks", 1, "50"),
			{ID: 3, ProductID: 30, Quantity: 1, UnitPrice: decimal.NewFromInt(99), LineSubtotal: decimal.NewFromInt(99), State: models.ItemCancelled},
		},
		Payments: []models.Payment{
			{Amount: decimal.RequireFromString("1000"), TenderType: models.TenderCard},
		},
	}
}

func TestKitchenTicket(t *testing.T) {
	order := testOrder()
	ticket := KitchenTicket(order, "Kitchen", order.Items[:1])
	assert.Equal(t, "KITCHEN", ticket.Title)
	require.Len(t, ticket.Lines, 1)
	assert.Nil(t, ticket.Lines[0].Amount)
	assert.Contains(t, ticket.Header, "Table T3  (#2)")
	assert.Equal(t, []string{"Notes: birthday"}, ticket.Footer)

	text := ticket.Text(58)
	assert.Contains(t, text, "2x Item food")
	assert.NotContains(t, text, "$")
	assert.Contains(t, text, strings.Repeat("-", 32)+"\n")
	assert.NotContains(t, text, strings.Repeat("-", 33))
}

func TestCancellationTicket(t *testing.T) {
	order := testOrder()
	ticket := CancellationTicket(order, order.Items[0], 1, models.CancelCustomerCancelled)
	assert.Equal(t, "*** CANCELLED ***", ticket.Title)
	require.Len(t, ticket.Lines, 1)
	assert.Equal(t, 1, ticket.Lines[0].Quantity)
	assert.Equal(t, "customer cancelled", ticket.Lines[0].Notes)
}

func TestReceipt(t *testing.T) {
	order := testOrder()
	settings := &models.RestaurantSettings{RestaurantName: "La Cantina", Currency: "MXN"}
	ticket := Receipt(order, settings)

	assert.Equal(t, "La Cantina", ticket.Title)
	assert.Len(t, ticket.Lines, 2)

	labels := make([]string, 0, len(ticket.Totals))
	for _, tot := range ticket.Totals {
		labels = append(labels, tot.Label)
	}
	assert.Equal(t, []string{"Subtotal", "Service 10%", "TOTAL", "Paid card", "Balance"}, labels)
	assert.Equal(t, "375.00", ticket.Totals[4].Amount.StringFixed(2))

	text := ticket.Text(80)
	assert.Contains(t, text, "$1,375.00 MXN")
	assert.Contains(t, text, "$1,200.00")
	assert.Contains(t, text, "Thank you!")
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		assert.LessOrEqual(t, len(line), 48, line)
	}

	// tanpa service dan tanpa pembayaran
	order.ServiceAmount = decimal.Zero
	order.Payments = nil
	ticket = Receipt(order, settings)
	assert.Len(t, ticket.Totals, 2)
}

func TestRenderPDF(t *testing.T) {
	ticket := Receipt(testOrder(), &models.RestaurantSettings{RestaurantName: "Café Olé", Currency: "MXN"})
	for _, width := range []int{58, 80, 0} {
		data, err := RenderPDF(ticket, width)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	}
}

func TestSpoolSink(t *testing.T) {
	dir := t.TempDir()
	sink := &SpoolSink{Dir: dir}
	printer := Printer{Name: "Cocina / Main", PaperWidth: 80}
	order := testOrder()

	require.NoError(t, sink.Print(context.Background(), printer, KitchenTicket(order, "cocina", order.Items)))

	files, err := os.ReadDir(filepath.Join(dir, "cocina-main"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].Name(), "-cocina.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, sink.Print(ctx, printer, KitchenTicket(order, "cocina", order.Items)))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "bar-2", slug(" Bar #2 "))
	assert.Equal(t, "ticket", slug("***"))
	assert.Equal(t, "cancelled", slug("*** CANCELLED ***"))
}
