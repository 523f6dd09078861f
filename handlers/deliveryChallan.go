package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
)

func CreateDeliveryChallanHandler(c *gin.Context) {
	var input models.NewDeliveryChallan
	if !bindJSON(c, &input) {
		return
	}
	challan, err := models.CreateDeliveryChallan(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challan)
}

func UpdateDeliveryChallanHandler(c *gin.Context) {
	challanId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewDeliveryChallan
	if !bindJSON(c, &input) {
		return
	}
	challan, err := models.UpdateDeliveryChallan(c.Request.Context(), challanId, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challan)
}

func DeleteDeliveryChallanHandler(c *gin.Context) {
	challanId, ok := pathId(c, "id")
	if !ok {
		return
	}
	challan, err := models.DeleteDeliveryChallan(c.Request.Context(), challanId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challan)
}

func GetDeliveryChallanHandler(c *gin.Context) {
	challanId, ok := pathId(c, "id")
	if !ok {
		return
	}
	challan, err := models.GetDeliveryChallan(c.Request.Context(), challanId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challan)
}

func ListDeliveryChallansHandler(c *gin.Context) {
	challans, err := models.ListDeliveryChallans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challans)
}
