package printing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type TicketLine struct {
	Quantity int
	Name     string
	Notes    string
	Amount   *decimal.Decimal
}

type TicketTotal struct {
	Label  string
	Amount decimal.Decimal
}

// Ticket is a printer-independent document; renderers turn it into bytes.
type Ticket struct {
	Title    string
	Header   []string
	Lines    []TicketLine
	Totals   []TicketTotal
	Footer   []string
	Currency string
	Printed  time.Time
}

func productName(item models.OrderItem) string {
	if item.Product != nil {
		return item.Product.Name
	}
	return fmt.Sprintf("Product #%d", item.ProductID)
}

func tableLabel(order *models.Order) string {
	if order.Table != nil {
		return order.Table.Label
	}
	return fmt.Sprintf("%d", order.TableID)
}

// KitchenTicket lists items for one station, without prices.
func KitchenTicket(order *models.Order, station string, items []models.OrderItem) Ticket {
	t := Ticket{
		Title: strings.ToUpper(station),
		Header: []string{
			"Order " + order.OrderNumber,
			fmt.Sprintf("Table %s  (#%d)", tableLabel(order), order.SequenceNumber),
		},
		Printed: time.Now(),
	}
	for _, item := range items {
		t.Lines = append(t.Lines, TicketLine{
			Quantity: item.Quantity,
			Name:     productName(item),
			Notes:    item.Notes,
		})
	}
	if order.Notes != "" {
		t.Footer = append(t.Footer, "Notes: "+order.Notes)
	}
	return t
}

// CancellationTicket tells the station to stop preparing an item.
func CancellationTicket(order *models.Order, item models.OrderItem, quantity int, reason models.CancellationReason) Ticket {
	return Ticket{
		Title: "*** CANCELLED ***",
		Header: []string{
			"Order " + order.OrderNumber,
			fmt.Sprintf("Table %s", tableLabel(order)),
		},
		Lines: []TicketLine{{
			Quantity: quantity,
			Name:     productName(item),
			Notes:    strings.ReplaceAll(string(reason), "_", " "),
		}},
		Printed: time.Now(),
	}
}

// Receipt is the customer bill with billable items, service and payments.
func Receipt(order *models.Order, settings *models.RestaurantSettings) Ticket {
	t := Ticket{
		Title: settings.RestaurantName,
		Header: []string{
			"Order " + order.OrderNumber,
			fmt.Sprintf("Table %s  (#%d)", tableLabel(order), order.SequenceNumber),
			order.OpenedAt.Format("2006-01-02 15:04"),
		},
		Currency: settings.Currency,
		Printed:  time.Now(),
	}
	for _, item := range order.Items {
		if !item.State.Billable() {
			continue
		}
		amount := item.LineSubtotal
		t.Lines = append(t.Lines, TicketLine{
			Quantity: item.Quantity,
			Name:     productName(item),
			Amount:   &amount,
		})
	}

	t.Totals = append(t.Totals, TicketTotal{Label: "Subtotal", Amount: order.Subtotal})
	if order.ServiceAmount.IsPositive() {
		t.Totals = append(t.Totals, TicketTotal{
			Label:  fmt.Sprintf("Service %s%%", order.ServicePercent.String()),
			Amount: order.ServiceAmount,
		})
	}
	t.Totals = append(t.Totals, TicketTotal{Label: "TOTAL", Amount: order.Total})

	paid := decimal.Zero
	for _, p := range order.Payments {
		paid = paid.Add(p.Amount)
		t.Totals = append(t.Totals, TicketTotal{Label: "Paid " + string(p.TenderType), Amount: p.Amount})
	}
	if paid.IsPositive() {
		t.Totals = append(t.Totals, TicketTotal{Label: "Balance", Amount: order.Total.Sub(paid)})
	}
	t.Footer = append(t.Footer, "Thank you!")
	return t
}

// Text renders the ticket as fixed-width text, 32 columns for 58mm paper and 48 for 80mm.
func (t Ticket) Text(paperWidth int) string {
	cols := 48
	if paperWidth == 58 {
		cols = 32
	}
	var b strings.Builder
	rule := strings.Repeat("-", cols)

	b.WriteString(center(t.Title, cols) + "\n")
	for _, h := range t.Header {
		b.WriteString(h + "\n")
	}
	b.WriteString(rule + "\n")
	for _, l := range t.Lines {
		left := fmt.Sprintf("%dx %s", l.Quantity, l.Name)
		if l.Amount != nil {
			b.WriteString(justify(left, utils.FormatMoney(*l.Amount, ""), cols) + "\n")
		} else {
			b.WriteString(left + "\n")
		}
		if l.Notes != "" {
			b.WriteString("   > " + l.Notes + "\n")
		}
	}
	if len(t.Totals) > 0 {
		b.WriteString(rule + "\n")
		for _, tot := range t.Totals {
			b.WriteString(justify(tot.Label, utils.FormatMoney(tot.Amount, t.Currency), cols) + "\n")
		}
	}
	if len(t.Footer) > 0 {
		b.WriteString(rule + "\n")
		for _, f := range t.Footer {
			b.WriteString(f + "\n")
		}
	}
	b.WriteString(t.Printed.Format("2006-01-02 15:04:05") + "\n")
	return b.String()
}

func center(s string, cols int) string {
	if len(s) >= cols {
		return s
	}
	return strings.Repeat(" ", (cols-len(s))/2) + s
}

func justify(left, right string, cols int) string {
	gap := cols - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
