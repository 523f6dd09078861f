package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

// bindJSON binds the request body and writes the error response itself, so
// handlers can just early-return on false.
func bindJSON(c *gin.Context, input interface{}) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// respondError maps domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var insufficientErr *models.InsufficientStockError
	switch {
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":            err.Error(),
			"current_stock":    insufficientErr.CurrentStock,
			"requested_change": insufficientErr.RequestedChange,
		})
	case errors.Is(err, models.ErrVoucherNumberTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrProductNotFound), errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrStockNotTracked),
		errors.Is(err, models.ErrVoucherNumberRequired),
		errors.Is(err, models.ErrOwnerRequired),
		errors.Is(err, models.ErrBusinessRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// pathId reads a positive integer path parameter; writes the error response on
// failure.
func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
