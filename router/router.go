package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/controllers"
	"github.com/yeremiapane/restaurant-pos/kds"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/printing"
	"github.com/yeremiapane/restaurant-pos/services"
)

// Deps -> semua yang dibutuhkan router, dirakit di main (atau di test)
type Deps struct {
	Core        *services.Core
	Events      *services.Dispatcher
	Hub         *kds.Hub
	Printers    *printing.Router
	Sink        printing.Sink
	CORSOrigins []string
	RateLimiter *middlewares.RateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	if len(d.CORSOrigins) > 0 {
		r.Use(middlewares.CORSMiddlewares(d.CORSOrigins))
	}
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.RateLimit())
	}

	core := d.Core
	printCtrl := controllers.NewPrintController(core.Orders, core.Settings, d.Printers, d.Sink)
	orderCtrl := controllers.NewOrderController(core.Orders, d.Events, printCtrl)
	paymentCtrl := controllers.NewPaymentController(core.Payments, d.Events)
	tableCtrl := controllers.NewTableController(core.Tables, d.Events)
	registerCtrl := controllers.NewCashRegisterController(core.CashRegister, d.Events)
	productCtrl := controllers.NewProductController(core.Products, core.Inventory)
	adminCtrl := controllers.NewAdminController(core.Settings, core.Reports)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())

	canView := middlewares.RequireCapability(services.CapViewOrders)

	// ORDERS
	auth.POST("/orders", middlewares.RequireOpenShift(core.CashRegister), orderCtrl.CreateOrder)
	auth.GET("/orders", canView, orderCtrl.ListOrders)
	auth.GET("/orders/:id", canView, orderCtrl.GetOrder)
	auth.POST("/orders/:id/items", orderCtrl.AddItems)
	auth.POST("/orders/:id/send-to-kitchen", orderCtrl.SendToKitchen)
	auth.POST("/orders/:id/transfer", orderCtrl.TransferOrder)
	auth.POST("/orders/:id/cancel", orderCtrl.CancelOrder)
	auth.POST("/orders/:id/print-kitchen", middlewares.RequireCapability(services.CapPrintTickets), printCtrl.PrintKitchen)
	auth.GET("/orders/:id/receipt", middlewares.RequireCapability(services.CapPrintTickets), printCtrl.Receipt)

	// ORDER ITEMS (cook: status, floor: delivered/cancel)
	auth.PATCH("/order-items/:id/status", orderCtrl.UpdateItemStatus)
	auth.POST("/order-items/:id/delivered", orderCtrl.MarkItemDelivered)
	auth.POST("/order-items/:id/cancel", orderCtrl.CancelItem)

	// KITCHEN
	auth.GET("/kitchen/queue", canView, orderCtrl.KitchenQueue)

	// PAYMENTS
	auth.POST("/orders/:id/payments", paymentCtrl.ProcessPayment)
	auth.GET("/orders/:id/payments", middlewares.RequireCapability(services.CapProcessPayment), paymentCtrl.ListPayments)

	// AREAS & TABLES
	auth.GET("/areas", canView, tableCtrl.ListAreas)
	auth.POST("/areas", tableCtrl.CreateArea)
	auth.PUT("/areas/:id", tableCtrl.UpdateArea)
	auth.DELETE("/areas/:id", tableCtrl.DeleteArea)
	auth.GET("/tables", canView, tableCtrl.ListTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.GET("/tables/:id", canView, tableCtrl.GetTable)
	auth.PUT("/tables/:id", tableCtrl.UpdateTable)
	auth.DELETE("/tables/:id", tableCtrl.DeleteTable)
	auth.POST("/tables/:id/reserve", tableCtrl.ReserveTable)
	auth.POST("/tables/:id/close", paymentCtrl.CloseTable)

	// CASH REGISTER
	canViewShifts := middlewares.RequireCapability(services.CapViewShifts)
	auth.POST("/cash-register/open", registerCtrl.OpenShift)
	auth.POST("/cash-register/:id/close", registerCtrl.CloseShift)
	auth.GET("/cash-register/current", canViewShifts, registerCtrl.CurrentShift)
	auth.GET("/cash-register", canViewShifts, registerCtrl.ListShifts)
	auth.GET("/cash-register/:id", canViewShifts, registerCtrl.GetShift)
	auth.GET("/cash-register/:id/export", canViewShifts, registerCtrl.ExportShift)

	// CATALOG
	auth.GET("/products", canView, productCtrl.ListProducts)
	auth.POST("/products", productCtrl.CreateProduct)
	auth.GET("/products/categories", canView, productCtrl.Categories)
	auth.GET("/products/:id", canView, productCtrl.GetProduct)
	auth.PUT("/products/:id", productCtrl.UpdateProduct)
	auth.DELETE("/products/:id", productCtrl.DeleteProduct)
	auth.POST("/products/:id/restock", productCtrl.Restock)
	auth.GET("/products/:id/movements", middlewares.RequireCapability(services.CapManageCatalog), productCtrl.Movements)

	// SETTINGS & REPORTS
	auth.GET("/settings", canView, adminCtrl.GetSettings)
	auth.PUT("/settings", adminCtrl.UpdateSettings)
	canViewReports := middlewares.RequireCapability(services.CapViewReports)
	auth.GET("/reports/sales", canViewReports, adminCtrl.SalesReport)
	auth.GET("/reports/servers", canViewReports, adminCtrl.ServerReport)
	auth.GET("/reports/daily-closings", canViewReports, adminCtrl.DailyClosingsReport)

	// WebSocket endpoint dengan middleware khusus
	if d.Hub != nil {
		kdsCtrl := controllers.NewKDSController(d.Hub, d.CORSOrigins)
		ws := r.Group("/ws")
		ws.Use(middlewares.WebSocketAuthMiddleware())
		ws.GET("/kds", kdsCtrl.Handler)
	}

	return r
}
