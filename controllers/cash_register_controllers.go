package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type CashRegisterController struct {
	Register *services.CashRegisterService
	Events   *services.Dispatcher
}

func NewCashRegisterController(register *services.CashRegisterService, events *services.Dispatcher) *CashRegisterController {
	return &CashRegisterController{Register: register, Events: events}
}

// OpenShift -> buka shift kasir dengan modal awal
func (rc *CashRegisterController) OpenShift(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var body struct {
		OpeningFloat decimal.Decimal `json:"opening_float"`
		Notes        string          `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	shift, events, err := rc.Register.OpenShift(c.Request.Context(), a, body.OpeningFloat, body.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	rc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusCreated, "Shift opened", shift)
}

// CloseShift -> tutup shift dengan hitungan kas fisik, hasilnya termasuk selisih
func (rc *CashRegisterController) CloseShift(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		CountedCash *decimal.Decimal `json:"counted_cash" binding:"required"`
		Notes       string           `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if body.CountedCash == nil {
		badRequest(c, errors.New("counted_cash is required"))
		return
	}

	summary, events, err := rc.Register.CloseShift(c.Request.Context(), a, id, *body.CountedCash, body.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	rc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Shift closed", summary)
}

func (rc *CashRegisterController) CurrentShift(c *gin.Context) {
	shift, err := rc.Register.CurrentShift(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	summary, err := rc.Register.GetShift(c.Request.Context(), shift.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current shift", summary)
}

func (rc *CashRegisterController) GetShift(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	summary, err := rc.Register.GetShift(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Shift detail", summary)
}

func parseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s, expected YYYY-MM-DD", name)
	}
	return &t, nil
}

// ListShifts -> riwayat shift, ?cashier_id= ?from= ?to= ?limit=
func (rc *CashRegisterController) ListShifts(c *gin.Context) {
	cashier, err := queryUint(c, "cashier_id")
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := queryUint(c, "limit")
	if err != nil {
		badRequest(c, err)
		return
	}
	from, err := parseDateQuery(c, "from")
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		badRequest(c, err)
		return
	}
	if to != nil {
		end := to.Add(24 * time.Hour)
		to = &end
	}

	shifts, err := rc.Register.ListShifts(c.Request.Context(), services.ShiftFilter{
		CashierUserID: cashier,
		From:          from,
		To:            to,
		Limit:         int(limit),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of shifts", shifts)
}

func addRow(sheet *xlsx.Sheet, values ...interface{}) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetValue(v)
	}
}

// ExportShift -> rekap shift dan daftar pembayaran dalam file Excel
func (rc *CashRegisterController) ExportShift(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	summary, err := rc.Register.GetShift(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	payments, err := rc.Register.ShiftPayments(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Summary")
	if err != nil {
		respondServiceError(c, fmt.Errorf("failed to create sheet: %w", err))
		return
	}
	shift := summary.Shift
	addRow(sheet, "Shift", shift.ID)
	addRow(sheet, "Cashier", shift.CashierUserID)
	addRow(sheet, "State", string(shift.State))
	addRow(sheet, "Opened at", shift.OpenedAt.Format("2006-01-02 15:04:05"))
	if shift.ClosedAt != nil {
		addRow(sheet, "Closed at", shift.ClosedAt.Format("2006-01-02 15:04:05"))
	}
	addRow(sheet, "Opening float", summary.OpeningFloat.StringFixed(2))
	addRow(sheet, "Cash", summary.CashTotal.StringFixed(2))
	addRow(sheet, "Card", summary.CardTotal.StringFixed(2))
	addRow(sheet, "Other", summary.OtherTotal.StringFixed(2))
	addRow(sheet, "Gross", summary.GrossTotal.StringFixed(2))
	addRow(sheet, "Expected cash", summary.ExpectedCash.StringFixed(2))
	addRow(sheet, "Counted cash", summary.CountedCash.StringFixed(2))
	addRow(sheet, "Variance", summary.Variance.StringFixed(2))
	addRow(sheet, "Payments", summary.PaymentCount)

	detail, err := file.AddSheet("Payments")
	if err != nil {
		respondServiceError(c, fmt.Errorf("failed to create sheet: %w", err))
		return
	}
	addRow(detail, "ID", "Order", "Amount", "Tender", "Reference", "Partial", "Processed by", "Created at")
	for _, p := range payments {
		addRow(detail, p.ID, p.OrderID, p.Amount.StringFixed(2), string(p.TenderType), p.Reference,
			p.IsPartial, p.ProcessedByUserID, p.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	filename := fmt.Sprintf("shift-%d-%s.xlsx", shift.ID, shift.OpenedAt.Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)
	if err := file.Write(c.Writer); err != nil {
		utils.ErrorLogger.WithField("shift_id", id).Errorf("failed to write shift export: %v", err)
	}
}
