package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
)

func CreateBusinessHandler(c *gin.Context) {
	var input models.NewBusiness
	if !bindJSON(c, &input) {
		return
	}
	business, err := models.CreateBusiness(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, business)
}

func UpdateBusinessHandler(c *gin.Context) {
	var input models.NewBusiness
	if !bindJSON(c, &input) {
		return
	}
	business, err := models.UpdateBusiness(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

func GetBusinessHandler(c *gin.Context) {
	business, err := models.GetBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, business)
}

func ListBusinessesHandler(c *gin.Context) {
	businesses, err := models.ListBusinesses(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, businesses)
}
