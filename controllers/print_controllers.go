package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/printing"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// PrintController -> kirim tiket dapur dan struk ke ticket sink yang dikonfigurasi
type PrintController struct {
	Orders   *services.OrderService
	Settings *services.SettingsService
	Router   *printing.Router
	Sink     printing.Sink
}

func NewPrintController(orders *services.OrderService, settings *services.SettingsService, router *printing.Router, sink printing.Sink) *PrintController {
	if router == nil {
		router = printing.NewRouter(nil)
	}
	return &PrintController{Orders: orders, Settings: settings, Router: router, Sink: sink}
}

func (pc *PrintController) enabled() bool {
	return pc != nil && pc.Router != nil && pc.Sink != nil && len(pc.Router.Printers()) > 0
}

type PrintedJob struct {
	Printer string `json:"printer"`
	ItemIDs []uint `json:"item_ids"`
	Error   string `json:"error,omitempty"`
}

type KitchenPrintResult struct {
	Jobs       []PrintedJob `json:"jobs"`
	Unassigned []uint       `json:"unassigned"`
}

// unprintedKitchenItems -> item yang sudah masuk dapur tapi belum tercetak
func unprintedKitchenItems(order *models.Order) []models.OrderItem {
	var items []models.OrderItem
	for _, item := range order.Items {
		if item.PrintedToKitchen || item.State == models.ItemPending || item.State == models.ItemCancelled {
			continue
		}
		items = append(items, item)
	}
	return items
}

func (pc *PrintController) printKitchen(ctx context.Context, orderID uint) (*KitchenPrintResult, error) {
	order, err := pc.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &KitchenPrintResult{Jobs: []PrintedJob{}, Unassigned: []uint{}}
	jobs, unassigned := pc.Router.Route(unprintedKitchenItems(order))
	for _, item := range unassigned {
		result.Unassigned = append(result.Unassigned, item.ID)
	}

	for _, job := range jobs {
		printed := PrintedJob{Printer: job.Printer.Name}
		for _, item := range job.Items {
			printed.ItemIDs = append(printed.ItemIDs, item.ID)
		}

		ticket := printing.KitchenTicket(order, job.Printer.Name, job.Items)
		if err := pc.Sink.Print(ctx, job.Printer, ticket); err != nil {
			printed.Error = err.Error()
			utils.ErrorLogger.WithFields(logrus.Fields{
				"order_id": orderID,
				"printer":  job.Printer.Name,
			}).Errorf("failed to print kitchen ticket: %v", err)
		} else if err := pc.Orders.MarkPrinted(ctx, orderID, printed.ItemIDs); err != nil {
			return nil, err
		}
		result.Jobs = append(result.Jobs, printed)
	}
	return result, nil
}

func (pc *PrintController) printKitchenAsync(orderID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := pc.printKitchen(ctx, orderID); err != nil {
		utils.ErrorLogger.WithField("order_id", orderID).Errorf("kitchen print failed: %v", err)
	}
}

// printCancellationAsync -> stasiun hanya diberi tahu kalau item sudah sampai dapur
func (pc *PrintController) printCancellationAsync(order *models.Order, itemID uint, req services.CancelItemRequest) {
	item, ok := cancellationTarget(order, itemID)
	if !ok || item.KitchenSentAt == nil {
		return
	}
	category := ""
	if item.Product != nil {
		category = item.Product.Category
	}
	printer, ok := pc.Router.PrinterFor(category)
	if !ok {
		return
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = item.Quantity
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ticket := printing.CancellationTicket(order, item, quantity, req.Reason)
	if err := pc.Sink.Print(ctx, printer, ticket); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"order_id": order.ID,
			"item_id":  itemID,
			"printer":  printer.Name,
		}).Errorf("failed to print cancellation ticket: %v", err)
	}
}

// PrintKitchen -> cetak ulang / cetak manual tiket dapur yang belum tercetak
func (pc *PrintController) PrintKitchen(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := pc.printKitchen(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen tickets processed", result)
}

// Receipt -> struk pelanggan dalam PDF, ?print=true juga mengirim ke printer kasir
func (pc *PrintController) Receipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	order, err := pc.Orders.GetOrder(ctx, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	settings, err := pc.Settings.Current(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	ticket := printing.Receipt(order, settings)
	width := 80
	if printer, ok := pc.Router.ReceiptPrinter(); ok {
		width = printer.PaperWidth
		if c.Query("print") == "true" {
			if err := pc.Sink.Print(ctx, printer, ticket); err != nil {
				respondServiceError(c, fmt.Errorf("failed to print receipt: %w", err))
				return
			}
		}
	}

	data, err := printing.RenderPDF(ticket, width)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", order.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", data)
}
