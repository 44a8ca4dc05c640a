package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type TableController struct {
	Tables *services.TableService
	Events *services.Dispatcher
}

func NewTableController(tables *services.TableService, events *services.Dispatcher) *TableController {
	return &TableController{Tables: tables, Events: events}
}

func (tc *TableController) CreateArea(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.AreaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	area, err := tc.Tables.CreateArea(c.Request.Context(), a, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Area created", area)
}

func (tc *TableController) UpdateArea(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.AreaUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	area, err := tc.Tables.UpdateArea(c.Request.Context(), a, id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Area updated", area)
}

// DeleteArea -> soft delete area beserta mejanya
func (tc *TableController) DeleteArea(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	area, events, err := tc.Tables.DeactivateArea(c.Request.Context(), a, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Area deactivated", area)
}

func (tc *TableController) ListAreas(c *gin.Context) {
	areas, err := tc.Tables.ListAreas(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of areas", areas)
}

// CreateTable -> tambah meja di area
func (tc *TableController) CreateTable(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in services.TableInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	table, events, err := tc.Tables.CreateTable(c.Request.Context(), a, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// ListTables -> ?area_id= opsional
func (tc *TableController) ListTables(c *gin.Context) {
	areaID, err := queryUint(c, "area_id")
	if err != nil {
		badRequest(c, err)
		return
	}
	tables, err := tc.Tables.ListTables(c.Request.Context(), areaID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	table, err := tc.Tables.GetTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

func (tc *TableController) ReserveTable(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	table, events, err := tc.Tables.ReserveTable(c.Request.Context(), a, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Table reserved", table)
}

func (tc *TableController) UpdateTable(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.TableUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	table, events, err := tc.Tables.UpdateTable(c.Request.Context(), a, id, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> soft delete, ditolak kalau meja masih punya order aktif
func (tc *TableController) DeleteTable(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	table, events, err := tc.Tables.DeactivateTable(c.Request.Context(), a, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.Events.Dispatch(events)
	utils.RespondJSON(c, http.StatusOK, "Table deactivated", table)
}
