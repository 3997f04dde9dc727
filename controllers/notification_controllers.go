package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/brewcraft/restaurant-backend/database"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/notify"
	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Log    *database.NotificationLog
	Sender reservation.Notifier
}

func NewNotificationController(log *database.NotificationLog, sender reservation.Notifier) *NotificationController {
	return &NotificationController{Log: log, Sender: sender}
}

// GetAllNotifications -> delivery log, newest first (?channel=&limit=)
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	notifs, err := nc.Log.Recent(c.Request.Context(), c.Query("channel"), limit)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications", notifs)
}

// CreateNotification -> admin message to one customer
func (nc *NotificationController) CreateNotification(c *gin.Context) {
	var body struct {
		UserID  string `json:"userId" binding:"required"`
		Email   string `json:"email"`
		Title   string `json:"title" binding:"required"`
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.UserID) == models.GuestUserID {
		utils.RespondError(c, http.StatusBadRequest, errors.New("guests cannot receive notifications"))
		return
	}

	msg := notify.Message{
		Channel:    notify.ChannelCustomer,
		Subject:    body.Title,
		Body:       body.Message,
		Recipient:  body.Email,
		Payload:    map[string]interface{}{"type": "ANNOUNCEMENT", "title": body.Title, "message": body.Message},
		Attributes: map[string]string{"userId": strings.TrimSpace(body.UserID)},
	}
	outcome := nc.Sender.Send(c.Request.Context(), msg)

	utils.InfoLogger.Printf("Notification to %s: %s", body.UserID, outcome)
	utils.RespondJSON(c, http.StatusAccepted, "Notification queued", gin.H{"notification": outcome})
}
