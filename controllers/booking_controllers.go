package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/brewcraft/restaurant-backend/cache"
	"github.com/brewcraft/restaurant-backend/hub"
	"github.com/brewcraft/restaurant-backend/middlewares"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
)

type BookingController struct {
	Svc   *reservation.Service
	Cache *cache.Cache
	Hub   *hub.Hub
}

func NewBookingController(svc *reservation.Service, c *cache.Cache, h *hub.Hub) *BookingController {
	return &BookingController{Svc: svc, Cache: c, Hub: h}
}

// CreateBooking -> public; the booking belongs to the logged in user, or to
// "guest" without a token. A userId in the body is ignored.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req reservation.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidBody)
		return
	}
	req.UserID = models.GuestUserID
	if username, _, ok := middlewares.CurrentUser(c); ok {
		req.UserID = username
	}

	result, err := bc.Svc.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	bc.changed(c.Request.Context(), hub.EventBookingCreated, &result.Booking)
	utils.RespondJSON(c, http.StatusCreated, "Booking created successfully", result)
}

// GetBookings -> customers see their own bookings; admins may filter by ?userId=
func (bc *BookingController) GetBookings(c *gin.Context) {
	username, role, _ := middlewares.CurrentUser(c)
	userID := username
	if role == models.RoleAdmin {
		userID = strings.TrimSpace(c.Query("userId"))
	}

	bookings, err := bc.Svc.ListBookings(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (bc *BookingController) GetBooking(c *gin.Context) {
	booking, err := bc.owned(c)
	if err != nil {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking retrieved successfully", booking)
}

// CancelBooking -> owner may cancel and edit contact details, nothing else.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	var req reservation.BookingUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidBody)
		return
	}
	if req.Status != nil && !strings.EqualFold(strings.TrimSpace(*req.Status), models.BookingCancelled) {
		utils.RespondError(c, http.StatusForbidden, errors.New("customers can only cancel a booking"))
		return
	}
	if _, err := bc.owned(c); err != nil {
		return
	}
	bc.update(c, req)
}

// UpdateBooking -> admin status decision and contact edits.
func (bc *BookingController) UpdateBooking(c *gin.Context) {
	var req reservation.BookingUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidBody)
		return
	}
	bc.update(c, req)
}

func (bc *BookingController) DeleteBooking(c *gin.Context) {
	booking, err := bc.Svc.DeleteBooking(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	bc.changed(c.Request.Context(), hub.EventBookingDelete, booking)
	utils.RespondJSON(c, http.StatusOK, "Booking deleted successfully", nil)
}

func (bc *BookingController) update(c *gin.Context, req reservation.BookingUpdate) {
	booking, err := bc.Svc.UpdateBooking(c.Request.Context(), c.Param("booking_id"), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	bc.changed(c.Request.Context(), hub.EventBookingUpdate, booking)
	utils.RespondJSON(c, http.StatusOK, "Booking updated successfully", booking)
}

// owned loads the booking and checks the caller may see it. It writes the
// error response itself.
func (bc *BookingController) owned(c *gin.Context) (*models.Booking, error) {
	booking, err := bc.Svc.GetBooking(c.Request.Context(), c.Param("booking_id"))
	if err != nil {
		respondServiceError(c, err)
		return nil, err
	}
	username, role, _ := middlewares.CurrentUser(c)
	if role != models.RoleAdmin && booking.UserID != username {
		// same answer as a missing booking
		utils.RespondError(c, http.StatusNotFound, reservation.ErrBookingNotFound)
		return nil, ErrNoPermission
	}
	return booking, nil
}

// changed refreshes table listings and tells the dashboard.
func (bc *BookingController) changed(ctx context.Context, event string, booking *models.Booking) {
	bc.Cache.InvalidateQuietly(ctx, cache.KeyTables+"*")
	if bc.Hub != nil {
		bc.Hub.Broadcast(event, booking, models.RoleAdmin)
	}
}
