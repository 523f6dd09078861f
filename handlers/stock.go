package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

func AdjustStockHandler(c *gin.Context) {
	var input models.NewStockAdjustment
	if !bindJSON(c, &input) {
		return
	}
	movement, err := models.AdjustStock(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func ListStockMovementsHandler(c *gin.Context) {
	productId, ok := pathId(c, "productId")
	if !ok {
		return
	}
	businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())

	limit := 0
	if value := c.Query("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	movements, err := models.ListStockMovements(c.Request.Context(), businessId, productId, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

func ExportStockMovementsHandler(c *gin.Context) {
	productId, ok := pathId(c, "productId")
	if !ok {
		return
	}
	businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())

	movements, err := models.ListStockMovements(c.Request.Context(), businessId, productId, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	file, err := models.ExportStockMovementsExcel(movements)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=stock_movements.xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := file.Write(c.Writer); err != nil {
		respondError(c, err)
	}
}

func GetInventorySettingsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ownerId, _ := utils.GetOwnerIdFromContext(ctx)
	businessId, _ := utils.GetBusinessIdFromContext(ctx)

	settings, err := models.GetInventorySettings(ctx, ownerId, businessId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func UpdateInventorySettingsHandler(c *gin.Context) {
	var input models.UpdateInventorySettingsInput
	if !bindJSON(c, &input) {
		return
	}
	settings, err := models.UpdateInventorySettings(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
