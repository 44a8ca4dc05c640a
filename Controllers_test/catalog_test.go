package Controllers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-pos/kds"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
)

func TestTablesAndAreas(t *testing.T) {
	s := newTestServer(t)
	data := s.seed()

	w := s.do(services.RoleAdmin, http.MethodPost, "/tables", gin.H{"label": "M1", "area_id": data.areaID})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = s.do(services.RoleAdmin, http.MethodPost, "/tables", gin.H{"label": "M9"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var areas []models.Area
	w = s.do(services.RoleWaiter, http.MethodGet, "/areas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &areas)
	require.Len(t, areas, 1)
	assert.Equal(t, "Salon", areas[0].Name)

	var tables []models.Table
	w = s.do(services.RoleWaiter, http.MethodGet, fmt.Sprintf("/tables?area_id=%d", data.areaID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tables)
	require.Len(t, tables, 2)
	assert.Equal(t, 4, tables[0].Capacity)
}

func TestUpdateAndDeleteTables(t *testing.T) {
	s := newTestServer(t)
	data := s.seed()
	s.openShift()

	var area models.Area
	w := s.do(services.RoleAdmin, http.MethodPut, fmt.Sprintf("/areas/%d", data.areaID), gin.H{"name": "Terraza"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &area)
	assert.Equal(t, "Terraza", area.Name)

	w = s.do(services.RoleWaiter, http.MethodPut, fmt.Sprintf("/areas/%d", data.areaID), gin.H{"name": "Bar"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var table models.Table
	w = s.do(services.RoleAdmin, http.MethodPut, fmt.Sprintf("/tables/%d", data.tableIDs[1]), gin.H{"label": "M20", "capacity": 8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &table)
	assert.Equal(t, "M20", table.Label)
	assert.Equal(t, 8, table.Capacity)

	// meja dengan order aktif tidak bisa dihapus
	s.createOrder(data.tableIDs[0], line(data.sodaID, 1))
	w = s.do(services.RoleAdmin, http.MethodDelete, fmt.Sprintf("/tables/%d", data.tableIDs[0]), nil)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, string(services.KindInvalidState), decode(t, w, nil).Kind)
	w = s.do(services.RoleAdmin, http.MethodDelete, fmt.Sprintf("/areas/%d", data.areaID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(services.RoleAdmin, http.MethodDelete, fmt.Sprintf("/tables/%d", data.tableIDs[1]), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Table deactivated", decode(t, w, &table).Message)
	assert.False(t, table.Active)

	var tables []models.Table
	w = s.do(services.RoleWaiter, http.MethodGet, "/tables", nil)
	decode(t, w, &tables)
	require.Len(t, tables, 1)
	assert.Equal(t, data.tableIDs[0], tables[0].ID)

	w = s.do(services.RoleAdmin, http.MethodDelete, "/tables/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductCategoriesAndDelete(t *testing.T) {
	s := newTestServer(t)
	data := s.seed()

	var categories []string
	w := s.do(services.RoleWaiter, http.MethodGet, "/products/categories", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &categories)
	assert.Equal(t, []string{"drinks", "food"}, categories)

	w = s.do(services.RoleWaiter, http.MethodDelete, fmt.Sprintf("/products/%d", data.tacoID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var product models.Product
	w = s.do(services.RoleAdmin, http.MethodDelete, fmt.Sprintf("/products/%d", data.tacoID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Product deactivated", decode(t, w, &product).Message)
	assert.False(t, product.Available)

	var products []models.Product
	w = s.do(services.RoleWaiter, http.MethodGet, "/products?available=true", nil)
	decode(t, w, &products)
	require.Len(t, products, 1)
	assert.Equal(t, data.sodaID, products[0].ID)
}

func TestProductsAndStock(t *testing.T) {
	s := newTestServer(t)
	data := s.seed()

	var products []models.Product
	w := s.do(services.RoleWaiter, http.MethodGet, "/products?category=drinks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &products)
	require.Len(t, products, 1)
	assert.Equal(t, data.sodaID, products[0].ID)

	var updated models.Product
	w = s.do(services.RoleAdmin, http.MethodPut, fmt.Sprintf("/products/%d", data.tacoID), gin.H{"unit_price": "11.50"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &updated)
	assert.Equal(t, "11.50", updated.UnitPrice.StringFixed(2))

	var restocked models.Product
	w = s.do(services.RoleAdmin, http.MethodPost, fmt.Sprintf("/products/%d/restock", data.tacoID), gin.H{"quantity": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &restocked)
	assert.Equal(t, 15, restocked.StockQuantity)

	w = s.do(services.RoleAdmin, http.MethodPost, fmt.Sprintf("/products/%d/restock", data.sodaID), gin.H{"quantity": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(services.RoleWaiter, http.MethodPost, fmt.Sprintf("/products/%d/restock", data.tacoID), gin.H{"quantity": 5})
	assert.Equal(t, http.StatusForbidden, w.Code)

	var movements []models.StockMovement
	w = s.do(services.RoleAdmin, http.MethodGet, fmt.Sprintf("/products/%d/movements", data.tacoID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &movements)
	require.NotEmpty(t, movements)
	assert.Equal(t, models.MovementRestock, movements[0].Kind)
	assert.Equal(t, 10, movements[0].StockBefore)
	assert.Equal(t, 15, movements[0].StockAfter)
}

func TestSettingsAndSalesReport(t *testing.T) {
	s := newTestServer(t)
	data := s.seed()
	s.openShift()

	var settings models.RestaurantSettings
	w := s.do(services.RoleWaiter, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &settings)
	assert.Equal(t, "10.00", settings.ServicePercent.StringFixed(2))

	w = s.do(services.RoleAdmin, http.MethodPut, "/settings", gin.H{"service_percent": "150"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(services.RoleAdmin, http.MethodPut, "/settings", gin.H{"service_percent": "15"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	order := s.createOrder(data.tableIDs[0], line(data.tacoID, 2))
	assert.Equal(t, "23.00", order.Total.StringFixed(2))

	w = s.do(services.RoleCashier, http.MethodPost, fmt.Sprintf("/orders/%d/payments", order.ID), gin.H{
		"amount": "23", "tender_type": "card",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var report services.SalesReport
	w = s.do(services.RoleCashier, http.MethodGet, "/reports/sales", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &report)
	assert.Equal(t, 1, report.OrderCount)
	assert.Equal(t, "23.00", report.Total.StringFixed(2))
	assert.Equal(t, "3.00", report.ServiceAmount.StringFixed(2))
	require.NotEmpty(t, report.TopProducts)
	assert.Equal(t, data.tacoID, report.TopProducts[0].ProductID)

	w = s.do(services.RoleCashier, http.MethodGet, "/reports/sales?top=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(services.RoleCashier, http.MethodGet, "/reports/sales?from=16-10-2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServerAndDailyClosingReports(t *testing.T) {
	s := newTestServer(t)
	data := s.seed()
	shiftID := s.openShift()

	order := s.createOrder(data.tableIDs[0], line(data.tacoID, 1))
	w := s.do(services.RoleCashier, http.MethodPost, fmt.Sprintf("/orders/%d/payments", order.ID), gin.H{
		"amount": "11", "tender_type": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var servers []services.ServerSales
	w = s.do(services.RoleCashier, http.MethodGet, "/reports/servers", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &servers)
	require.Len(t, servers, 1)
	assert.Equal(t, uint(3), servers[0].ServerUserID)
	assert.Equal(t, "11.00", servers[0].Total.StringFixed(2))

	w = s.do(services.RoleCashier, http.MethodPost, fmt.Sprintf("/cash-register/%d/close", shiftID), gin.H{"counted_cash": "511"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var days []services.DailyClosing
	w = s.do(services.RoleAdmin, http.MethodGet, "/reports/daily-closings", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &days)
	require.Len(t, days, 1)
	assert.Equal(t, 1, days[0].ShiftCount)
	assert.Equal(t, "511.00", days[0].ExpectedCash.StringFixed(2))
	assert.True(t, days[0].Variance.IsZero())

	w = s.do(services.RoleWaiter, http.MethodGet, "/reports/servers", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(services.RoleAdmin, http.MethodGet, "/reports/daily-closings?to=2026/10/16", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKDSWebSocket(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.engine)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/kds"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+s.tokens[services.RoleCashier], nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	s.openShift()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg kds.Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, services.EventShiftOpened, msg.Event)
}
