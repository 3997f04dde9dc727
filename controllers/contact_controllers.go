package controllers

import (
	"errors"
	"net/http"

	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/brewcraft/restaurant-backend/workflow"
	"github.com/gin-gonic/gin"
)

type ContactController struct {
	Starter workflow.Starter
}

func NewContactController(starter workflow.Starter) *ContactController {
	return &ContactController{Starter: starter}
}

// SubmitContact -> validates the form and starts the contact workflow
func (cc *ContactController) SubmitContact(c *gin.Context) {
	var req workflow.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidBody)
		return
	}
	if err := req.Validate(); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	executionID, err := cc.Starter.Start(c.Request.Context(), req)
	if err != nil {
		var vErr *workflow.ValidationError
		if errors.As(err, &vErr) {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		utils.ErrorLogger.Printf("start contact workflow: %v", err)
		utils.RespondError(c, http.StatusBadGateway, errors.New("could not submit message, please try again"))
		return
	}

	utils.InfoLogger.Printf("Contact workflow started: %s", executionID)
	utils.RespondJSON(c, http.StatusOK, "Contact workflow started", gin.H{"executionId": executionID})
}
