package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yeremiapane/restaurant-pos/models"
	"gorm.io/gorm"
)

type ProductSales struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type SalesReport struct {
	From          time.Time                             `json:"from"`
	To            time.Time                             `json:"to"`
	OrderCount    int                                   `json:"order_count"`
	Subtotal      decimal.Decimal                       `json:"subtotal"`
	ServiceAmount decimal.Decimal                       `json:"service_amount"`
	Total         decimal.Decimal                       `json:"total"`
	AverageTicket decimal.Decimal                       `json:"average_ticket"`
	ByTender      map[models.TenderType]decimal.Decimal `json:"by_tender"`
	TopProducts   []ProductSales                        `json:"top_products"`
}

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// Sales aggregates paid orders closed within [from, to]. Cancelled items are excluded.
func (s *ReportService) Sales(ctx context.Context, from, to time.Time, top int) (*SalesReport, error) {
	if to.Before(from) {
		return nil, newError(KindValidationFailed, "report range end is before start")
	}
	if top <= 0 {
		top = 10
	}

	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Preload("Items", "state IN ?", models.BillableItemStates).
		Preload("Items.Product").
		Preload("Payments").
		Where("state = ? AND closed_at >= ? AND closed_at <= ?", models.OrderPaid, from, to).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load paid orders: %w", err)
	}

	report := &SalesReport{
		From:       from,
		To:         to,
		OrderCount: len(orders),
		ByTender:   map[models.TenderType]decimal.Decimal{},
	}
	products := map[uint]*ProductSales{}
	for _, order := range orders {
		report.Subtotal = report.Subtotal.Add(order.Subtotal)
		report.ServiceAmount = report.ServiceAmount.Add(order.ServiceAmount)
		report.Total = report.Total.Add(order.Total)

		for _, p := range order.Payments {
			report.ByTender[p.TenderType] = report.ByTender[p.TenderType].Add(p.Amount)
		}
		for _, item := range order.Items {
			ps, ok := products[item.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: item.ProductID}
				if item.Product != nil {
					ps.Name = item.Product.Name
					ps.Category = item.Product.Category
				}
				products[item.ProductID] = ps
			}
			ps.Quantity += item.Quantity
			ps.Revenue = ps.Revenue.Add(lineSubtotal(item.UnitPrice, item.Quantity))
		}
	}
	if len(orders) > 0 {
		report.AverageTicket = report.Total.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}

	for _, ps := range products {
		report.TopProducts = append(report.TopProducts, *ps)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		a, b := report.TopProducts[i], report.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		return a.ProductID < b.ProductID
	})
	if len(report.TopProducts) > top {
		report.TopProducts = report.TopProducts[:top]
	}
	return report, nil
}

type ServerSales struct {
	ServerUserID  uint            `json:"server_user_id"`
	OrderCount    int             `json:"order_count"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	ServiceAmount decimal.Decimal `json:"service_amount"`
	Total         decimal.Decimal `json:"total"`
	AverageTicket decimal.Decimal `json:"average_ticket"`
}

// ByServer groups paid orders closed within [from, to] by the waiter who
// opened them, highest total first.
func (s *ReportService) ByServer(ctx context.Context, from, to time.Time) ([]ServerSales, error) {
	if to.Before(from) {
		return nil, newError(KindValidationFailed, "report range end is before start")
	}

	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Select("id", "server_user_id", "subtotal", "service_amount", "total").
		Where("state = ? AND closed_at >= ? AND closed_at <= ?", models.OrderPaid, from, to).
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load paid orders: %w", err)
	}

	byServer := map[uint]*ServerSales{}
	for _, order := range orders {
		ss, ok := byServer[order.ServerUserID]
		if !ok {
			ss = &ServerSales{ServerUserID: order.ServerUserID}
			byServer[order.ServerUserID] = ss
		}
		ss.OrderCount++
		ss.Subtotal = ss.Subtotal.Add(order.Subtotal)
		ss.ServiceAmount = ss.ServiceAmount.Add(order.ServiceAmount)
		ss.Total = ss.Total.Add(order.Total)
	}

	rows := make([]ServerSales, 0, len(byServer))
	for _, ss := range byServer {
		ss.AverageTicket = ss.Total.Div(decimal.NewFromInt(int64(ss.OrderCount))).Round(2)
		rows = append(rows, *ss)
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].Total.Equal(rows[j].Total) {
			return rows[i].Total.GreaterThan(rows[j].Total)
		}
		return rows[i].ServerUserID < rows[j].ServerUserID
	})
	return rows, nil
}

type DailyClosing struct {
	Date         string          `json:"date"`
	ShiftCount   int             `json:"shift_count"`
	ShiftIDs     []uint          `json:"shift_ids"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
	CashTotal    decimal.Decimal `json:"cash_total"`
	CardTotal    decimal.Decimal `json:"card_total"`
	OtherTotal   decimal.Decimal `json:"other_total"`
	GrossTotal   decimal.Decimal `json:"gross_total"`
	ExpectedCash decimal.Decimal `json:"expected_cash"`
	CountedCash  decimal.Decimal `json:"counted_cash"`
	Variance     decimal.Decimal `json:"variance"`
}

// DailyClosings rolls closed shifts up per closing day, oldest day first.
// Days are cut in from's location.
func (s *ReportService) DailyClosings(ctx context.Context, from, to time.Time) ([]DailyClosing, error) {
	if to.Before(from) {
		return nil, newError(KindValidationFailed, "report range end is before start")
	}

	var shifts []models.CashRegisterShift
	if err := s.db.WithContext(ctx).
		Where("state = ? AND closed_at >= ? AND closed_at <= ?", models.ShiftClosed, from, to).
		Order("closed_at ASC, id ASC").
		Find(&shifts).Error; err != nil {
		return nil, fmt.Errorf("failed to load closed shifts: %w", err)
	}

	days := []DailyClosing{}
	index := map[string]int{}
	for _, shift := range shifts {
		if shift.ClosedAt == nil {
			continue
		}
		date := shift.ClosedAt.In(from.Location()).Format("2006-01-02")
		i, ok := index[date]
		if !ok {
			days = append(days, DailyClosing{Date: date, ShiftIDs: []uint{}})
			i = len(days) - 1
			index[date] = i
		}
		day := &days[i]
		day.ShiftCount++
		day.ShiftIDs = append(day.ShiftIDs, shift.ID)
		day.OpeningFloat = day.OpeningFloat.Add(shift.OpeningFloat)
		day.CashTotal = day.CashTotal.Add(shift.CashTotal)
		day.CardTotal = day.CardTotal.Add(shift.CardTotal)
		day.OtherTotal = day.OtherTotal.Add(shift.GrossTotal.Sub(shift.CashTotal).Sub(shift.CardTotal))
		day.GrossTotal = day.GrossTotal.Add(shift.GrossTotal)
		day.ExpectedCash = day.ExpectedCash.Add(shift.OpeningFloat.Add(shift.CashTotal))
		if shift.ClosingCount.Valid {
			day.CountedCash = day.CountedCash.Add(shift.ClosingCount.Decimal)
		}
		if shift.Variance.Valid {
			day.Variance = day.Variance.Add(shift.Variance.Decimal)
		}
	}
	return days, nil
}
