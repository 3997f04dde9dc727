package controllers

import (
	"errors"
	"net/http"

	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
)

var (
	ErrNoPermission = errors.New("you do not have permission")
	ErrInvalidBody  = errors.New("invalid request body")
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var inputErr *reservation.InputError
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.Is(err, reservation.ErrTableNotFound), errors.Is(err, reservation.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, reservation.ErrNoAvailability), errors.Is(err, reservation.ErrTableReserved):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		utils.ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.RespondError(c, code, errors.New("internal server error"))
		return
	}
	utils.RespondError(c, code, err)
}
