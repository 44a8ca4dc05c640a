package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// AdminController -> pengaturan restoran dan laporan penjualan
type AdminController struct {
	Settings *services.SettingsService
	Reports  *services.ReportService
}

func NewAdminController(settings *services.SettingsService, reports *services.ReportService) *AdminController {
	return &AdminController{Settings: settings, Reports: reports}
}

func (ac *AdminController) GetSettings(c *gin.Context) {
	settings, err := ac.Settings.Current(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant settings", settings)
}

func (ac *AdminController) UpdateSettings(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.SettingsUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	settings, err := ac.Settings.Update(c.Request.Context(), a, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Settings updated", settings)
}

// reportRange -> ?from=YYYY-MM-DD&to=YYYY-MM-DD, to inklusif, default hari ini
func reportRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from, to := today, today

	if p, err := parseDateQuery(c, "from"); err != nil {
		badRequest(c, err)
		return from, to, false
	} else if p != nil {
		from = *p
	}
	if p, err := parseDateQuery(c, "to"); err != nil {
		badRequest(c, err)
		return from, to, false
	} else if p != nil {
		to = *p
	}
	return from, to.Add(24 * time.Hour), true
}

// SalesReport -> ringkasan penjualan, ?top= jumlah produk terlaris
func (ac *AdminController) SalesReport(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}

	top := 10
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, errors.New("invalid top"))
			return
		}
		top = n
	}

	report, err := ac.Reports.Sales(c.Request.Context(), from, to, top)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales report", report)
}

// ServerReport -> penjualan per waiter
func (ac *AdminController) ServerReport(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}
	rows, err := ac.Reports.ByServer(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales by server", rows)
}

// DailyClosingsReport -> rekap tutup kasir per hari dari shift yang sudah ditutup
func (ac *AdminController) DailyClosingsReport(c *gin.Context) {
	from, to, ok := reportRange(c)
	if !ok {
		return
	}
	days, err := ac.Reports.DailyClosings(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Daily closings", days)
}
