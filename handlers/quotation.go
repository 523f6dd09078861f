package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
)

func CreateQuotationHandler(c *gin.Context) {
	var input models.NewQuotation
	if !bindJSON(c, &input) {
		return
	}
	quotation, err := models.CreateQuotation(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quotation)
}

func UpdateQuotationHandler(c *gin.Context) {
	quotationId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewQuotation
	if !bindJSON(c, &input) {
		return
	}
	quotation, err := models.UpdateQuotation(c.Request.Context(), quotationId, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotation)
}

func DeleteQuotationHandler(c *gin.Context) {
	quotationId, ok := pathId(c, "id")
	if !ok {
		return
	}
	quotation, err := models.DeleteQuotation(c.Request.Context(), quotationId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotation)
}

func GetQuotationHandler(c *gin.Context) {
	quotationId, ok := pathId(c, "id")
	if !ok {
		return
	}
	quotation, err := models.GetQuotation(c.Request.Context(), quotationId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotation)
}

func ListQuotationsHandler(c *gin.Context) {
	quotations, err := models.ListQuotations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quotations)
}
