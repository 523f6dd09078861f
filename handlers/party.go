package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/gstbill_backend/models"
)

func CreatePartyHandler(c *gin.Context) {
	var input models.NewParty
	if !bindJSON(c, &input) {
		return
	}
	party, err := models.CreateParty(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, party)
}

func UpdatePartyHandler(c *gin.Context) {
	partyId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewParty
	if !bindJSON(c, &input) {
		return
	}
	party, err := models.UpdateParty(c.Request.Context(), partyId, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, party)
}

func DeletePartyHandler(c *gin.Context) {
	partyId, ok := pathId(c, "id")
	if !ok {
		return
	}
	party, err := models.DeleteParty(c.Request.Context(), partyId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, party)
}

func GetPartyHandler(c *gin.Context) {
	partyId, ok := pathId(c, "id")
	if !ok {
		return
	}
	party, err := models.GetParty(c.Request.Context(), partyId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, party)
}

func ListPartiesHandler(c *gin.Context) {
	var partyType *models.PartyType
	if value := c.Query("party_type"); value != "" {
		pt := models.PartyType(value)
		partyType = &pt
	}
	parties, err := models.ListParties(c.Request.Context(), partyType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, parties)
}
