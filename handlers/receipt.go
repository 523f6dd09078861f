package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
)

func CreateReceiptHandler(c *gin.Context) {
	var input models.NewReceipt
	if !bindJSON(c, &input) {
		return
	}
	receipt, err := models.CreateReceipt(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func UpdateReceiptHandler(c *gin.Context) {
	receiptId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewReceipt
	if !bindJSON(c, &input) {
		return
	}
	receipt, err := models.UpdateReceipt(c.Request.Context(), receiptId, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func DeleteReceiptHandler(c *gin.Context) {
	receiptId, ok := pathId(c, "id")
	if !ok {
		return
	}
	receipt, err := models.DeleteReceipt(c.Request.Context(), receiptId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func GetReceiptHandler(c *gin.Context) {
	receiptId, ok := pathId(c, "id")
	if !ok {
		return
	}
	receipt, err := models.GetReceipt(c.Request.Context(), receiptId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func ListReceiptsHandler(c *gin.Context) {
	receipts, err := models.ListReceipts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipts)
}
