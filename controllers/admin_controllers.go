package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Reconciler repairs table status; implemented by services.ReconcileMonitor.
type Reconciler interface {
	RunOnce(ctx context.Context) (reservation.ReconcileReport, error)
}

type AdminController struct {
	DB         *gorm.DB
	Reconciler Reconciler
}

func NewAdminController(db *gorm.DB, r Reconciler) *AdminController {
	return &AdminController{DB: db, Reconciler: r}
}

type statusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// GetDashboardStats -> tables and bookings grouped by status
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	var stats struct {
		Tables       []statusCount `json:"tables"`
		Bookings     []statusCount `json:"bookings"`
		TodayBooking int64         `json:"todayBookings"`
		TotalRevenue float64       `json:"confirmedRevenue"`
	}

	db := ac.DB.WithContext(c.Request.Context())
	if err := db.Model(&models.Table{}).
		Select("status, COUNT(*) AS count").Group("status").Order("status").
		Scan(&stats.Tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if err := db.Model(&models.Booking{}).
		Select("status, COUNT(*) AS count").Group("status").Order("status").
		Scan(&stats.Bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	today := c.DefaultQuery("date", time.Now().Format("2006-01-02"))
	db.Model(&models.Booking{}).Where("date = ?", today).Count(&stats.TodayBooking)
	db.Model(&models.Booking{}).
		Where("status = ?", models.BookingConfirmed).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.TotalRevenue)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// Reconcile -> run the table status repair now
func (ac *AdminController) Reconcile(c *gin.Context) {
	report, err := ac.Reconciler.RunOnce(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reconcile completed", report)
}
