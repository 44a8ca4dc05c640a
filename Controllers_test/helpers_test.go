package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/restaurant-pos/database"
	"github.com/yeremiapane/restaurant-pos/kds"
	"github.com/yeremiapane/restaurant-pos/router"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	core   *services.Core
	hub    *kds.Hub
	events *services.Dispatcher
	engine *gin.Engine
	tokens map[services.Role]string
}

func setupTestDB(t *testing.T) *gorm.DB {
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

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithPolicy(t, services.AddItemsAtomic)
}

func newTestServerWithPolicy(t *testing.T, policy services.AddItemsPolicy) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitLogger()

	db := setupTestDB(t)
	s := &testServer{
		t:      t,
		db:     db,
		core:   services.NewCore(db, policy),
		hub:    kds.NewHub(),
		tokens: map[services.Role]string{},
	}
	s.events = services.NewDispatcher(s.hub)
	t.Cleanup(s.events.Wait)
	s.engine = router.SetupRouter(router.Deps{
		Core:   s.core,
		Events: s.events,
		Hub:    s.hub,
	})

	users := map[services.Role]uint{
		services.RoleAdmin:   1,
		services.RoleCashier: 2,
		services.RoleWaiter:  3,
		services.RoleCook:    4,
	}
	for role, id := range users {
		token, err := utils.GenerateToken(id, string(role), time.Hour)
		require.NoError(t, err)
		s.tokens[role] = token
	}
	return s
}

// do sends a JSON request as role; an empty role sends no Authorization header.
func (s *testServer) do(role services.Role, method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(s.t, err)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[role])
	}
	return s.serve(req)
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func bytesReader(body string) *bytes.Reader {
	return bytes.NewReader([]byte(body))
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

// seed membuat area, dua meja, dan produk dasar lewat API
type seedData struct {
	areaID   uint
	tableIDs []uint
	tacoID   uint
	sodaID   uint
}

type idOnly struct {
	ID uint `json:"id"`
}

func (s *testServer) seed() seedData {
	s.t.Helper()
	var data seedData

	var area idOnly
	w := s.do(services.RoleAdmin, http.MethodPost, "/areas", gin.H{"name": "Salon"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	decode(s.t, w, &area)
	data.areaID = area.ID

	for _, label := range []string{"M1", "M2"} {
		var table idOnly
		w = s.do(services.RoleAdmin, http.MethodPost, "/tables", gin.H{"label": label, "area_id": area.ID})
		require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
		decode(s.t, w, &table)
		data.tableIDs = append(data.tableIDs, table.ID)
	}

	var taco, soda idOnly
	w = s.do(services.RoleAdmin, http.MethodPost, "/products", gin.H{
		"name": "Taco", "category": "food", "unit_price": "10.00", "stock_quantity": 10,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	decode(s.t, w, &taco)
	data.tacoID = taco.ID

	w = s.do(services.RoleAdmin, http.MethodPost, "/products", gin.H{
		"name": "Agua fresca", "category": "drinks", "unit_price": "2.50", "stock_controlled": false,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	decode(s.t, w, &soda)
	data.sodaID = soda.ID
	return data
}

func (s *testServer) openShift() uint {
	s.t.Helper()
	var shift idOnly
	w := s.do(services.RoleCashier, http.MethodPost, "/cash-register/open", gin.H{"opening_float": "500"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	decode(s.t, w, &shift)
	return shift.ID
}

type orderView struct {
	ID             uint            `json:"id"`
	TableID        uint            `json:"table_id"`
	SequenceNumber int             `json:"sequence_number"`
	State          string          `json:"state"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ServiceAmount  decimal.Decimal `json:"service_amount"`
	Total          decimal.Decimal `json:"total"`
	Items          []struct {
		ID       uint   `json:"id"`
		Quantity int    `json:"quantity"`
		State    string `json:"state"`
	} `json:"items"`
}

func (s *testServer) createOrder(tableID uint, items ...gin.H) orderView {
	s.t.Helper()
	var order orderView
	w := s.do(services.RoleWaiter, http.MethodPost, "/orders", gin.H{"table_id": tableID, "items": items})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	decode(s.t, w, &order)
	return order
}

func line(productID uint, qty int) gin.H {
	return gin.H{"product_id": productID, "quantity": qty}
}
