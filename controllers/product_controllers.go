package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type ProductController struct {
	Products  *services.ProductService
	Inventory *services.InventoryLedger
}

func NewProductController(products *services.ProductService, inventory *services.InventoryLedger) *ProductController {
	return &ProductController{Products: products, Inventory: inventory}
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	product, err := pc.Products.Create(c.Request.Context(), a, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

// ListProducts -> ?category= ?available=true
func (pc *ProductController) ListProducts(c *gin.Context) {
	products, err := pc.Products.List(c.Request.Context(), services.ProductFilter{
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available") == "true",
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := pc.Products.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product detail", product)
}

// UpdateProduct -> perubahan harga tidak mengubah item order yang sudah ada
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.ProductUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	product, err := pc.Products.Update(c.Request.Context(), a, id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

// Categories -> daftar kategori untuk filter menu
func (pc *ProductController) Categories(c *gin.Context) {
	categories, err := pc.Products.Categories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

// DeleteProduct -> soft delete, produk hanya ditandai tidak tersedia
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := pc.Products.Deactivate(c.Request.Context(), a, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product deactivated", product)
}

func (pc *ProductController) Restock(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	product, err := pc.Inventory.Restock(c.Request.Context(), a, id, body.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product restocked", product)
}

func (pc *ProductController) Movements(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit, err := queryUint(c, "limit")
	if err != nil {
		badRequest(c, err)
		return
	}
	movements, err := pc.Inventory.Movements(c.Request.Context(), id, int(limit))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock movements", movements)
}
