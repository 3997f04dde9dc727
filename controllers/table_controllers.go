package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/brewcraft/restaurant-backend/cache"
	"github.com/brewcraft/restaurant-backend/hub"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
)

type TableController struct {
	Svc   *reservation.Service
	Cache *cache.Cache
	Hub   *hub.Hub
}

func NewTableController(svc *reservation.Service, c *cache.Cache, h *hub.Hub) *TableController {
	return &TableController{Svc: svc, Cache: c, Hub: h}
}

// GetAllTables -> list tables, optionally filtered by ?status=
func (tc *TableController) GetAllTables(c *gin.Context) {
	status := strings.ToUpper(c.Query("status"))
	tables, err := cache.Remember(c.Request.Context(), tc.Cache, cache.KeyTables+status,
		func(ctx context.Context) ([]models.Table, error) {
			return tc.Svc.ListTables(ctx, status)
		})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables retrieved successfully", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	table, err := tc.Svc.GetTable(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table retrieved successfully", table)
}

func (tc *TableController) CreateTable(c *gin.Context) {
	var req reservation.TableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Svc.CreateTable(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	tc.changed(c.Request.Context(), hub.EventTableCreate, table)
	utils.InfoLogger.Printf("New table created: %s (seats=%d)", table.ID, table.Seats)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

func (tc *TableController) UpdateTable(c *gin.Context) {
	var req reservation.TableUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Svc.UpdateTable(c.Request.Context(), c.Param("table_id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	tc.changed(c.Request.Context(), hub.EventTableUpdate, table)
	utils.RespondJSON(c, http.StatusOK, "Table updated successfully", table)
}

func (tc *TableController) DeleteTable(c *gin.Context) {
	table, err := tc.Svc.DeleteTable(c.Request.Context(), c.Param("table_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	tc.changed(c.Request.Context(), hub.EventTableDelete, table)
	utils.InfoLogger.Printf("Table deleted: %s", table.ID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted successfully", nil)
}

func (tc *TableController) changed(ctx context.Context, event string, table *models.Table) {
	tc.Cache.InvalidateQuietly(ctx, cache.KeyTables+"*")
	if tc.Hub != nil {
		tc.Hub.Broadcast(event, table, models.RoleAdmin)
	}
}
