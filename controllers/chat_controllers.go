package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/brewcraft/restaurant-backend/chat"
	"github.com/brewcraft/restaurant-backend/middlewares"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
)

type ChatController struct {
	Chat *chat.Service
}

func NewChatController(chatSvc *chat.Service) *ChatController {
	return &ChatController{Chat: chatSvc}
}

// GetMessages -> history between the caller and ?with=
func (cc *ChatController) GetMessages(c *gin.Context) {
	username, _, _ := middlewares.CurrentUser(c)
	other := strings.TrimSpace(c.Query("with"))
	if other == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("query parameter 'with' is required"))
		return
	}

	msgs, err := cc.Chat.History(c.Request.Context(), username, other)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Messages retrieved successfully", msgs)
}

// SendMessage -> REST fallback for clients without a socket
func (cc *ChatController) SendMessage(c *gin.Context) {
	username, _, _ := middlewares.CurrentUser(c)
	var body struct {
		RecipientID string `json:"recipientId" binding:"required"`
		Message     string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	msg, err := cc.Chat.Send(c.Request.Context(), username, body.RecipientID, body.Message)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Message sent", msg)
}

// GetConversations -> admin inbox
func (cc *ChatController) GetConversations(c *gin.Context) {
	username, _, _ := middlewares.CurrentUser(c)
	convs, err := cc.Chat.Conversations(c.Request.Context(), username)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Conversations retrieved successfully", convs)
}

// GetOnlineUsers -> connected customers, guests excluded
func (cc *ChatController) GetOnlineUsers(c *gin.Context) {
	role := c.DefaultQuery("role", models.RoleCustomer)
	utils.RespondJSON(c, http.StatusOK, "Online users", cc.Chat.OnlineUsers(role))
}
