// Package reservation allocates tables to bookings and keeps table status in
// step with the active bookings that reference it.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/notify"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Notifier interface {
	Send(ctx context.Context, msg notify.Message) notify.Outcome
}

type Service struct {
	db       *gorm.DB
	ids      *IDGenerator
	notifier Notifier
	validate *validator.Validate
}

func NewService(db *gorm.DB, notifier Notifier) *Service {
	return &Service{
		db:       db,
		ids:      NewIDGenerator(db),
		notifier: notifier,
		validate: newValidator(),
	}
}

type BookingRequest struct {
	UserID          string                `json:"userId"`
	CustomerName    string                `json:"customerName" validate:"required"`
	Phone           string                `json:"phone" validate:"required"`
	Email           string                `json:"email" validate:"required,email"`
	Date            string                `json:"date" validate:"required,bookingdate"`
	Time            string                `json:"time" validate:"required"`
	Guests          int                   `json:"guests" validate:"required,gt=0"`
	TableID         string                `json:"tableId"`
	SelectedItems   []models.SelectedItem `json:"selectedItems"`
	Total           float64               `json:"total" validate:"gte=0"`
	SpecialRequests string                `json:"specialRequests"`
}

func (r *BookingRequest) normalize() {
	r.UserID = strings.TrimSpace(r.UserID)
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.TableID = strings.TrimSpace(r.TableID)
	if r.UserID == "" {
		r.UserID = models.GuestUserID
	}
	if r.SelectedItems == nil {
		r.SelectedItems = []models.SelectedItem{}
	}
}

// BookingUpdate carries the fields an update may change. Nil means unchanged.
type BookingUpdate struct {
	Status          *string `json:"status"`
	CustomerName    *string `json:"customerName"`
	Phone           *string `json:"phone"`
	Email           *string `json:"email"`
	SpecialRequests *string `json:"specialRequests"`
}

// CommitResult is a created booking together with what happened to the
// administrator notification.
type CommitResult struct {
	models.Booking
	Notification notify.Outcome `json:"notification"`
}

// FindOrValidateTable resolves the table a booking would get right now.
func (s *Service) FindOrValidateTable(ctx context.Context, guests int, date, t, requestedID string) (string, error) {
	tables, err := candidates(s.db.WithContext(ctx), guests, date, t, requestedID)
	if err != nil {
		return "", err
	}
	return tables[0].ID, nil
}

// Candidates lists eligible tables in allocation order: the requested table
// alone, or available tables by capacity ascending then id.
func (s *Service) Candidates(ctx context.Context, guests int, date, t, requestedID string) ([]models.Table, error) {
	return candidates(s.db.WithContext(ctx), guests, date, t, requestedID)
}

func candidates(tx *gorm.DB, guests int, date, t, requestedID string) ([]models.Table, error) {
	if requestedID != "" {
		var table models.Table
		if err := tx.First(&table, "id = ?", requestedID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTableNotFound
			}
			return nil, dependency("load table", err)
		}
		if table.Seats < guests {
			return nil, ErrNoAvailability
		}
		taken, err := slotTaken(tx, table.ID, date, t)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrNoAvailability
		}
		return []models.Table{table}, nil
	}

	var tables []models.Table
	err := tx.Where("status = ? AND seats >= ?", models.TableAvailable, guests).
		Order("seats ASC").
		Order("id ASC").
		Find(&tables).Error
	if err != nil {
		return nil, dependency("list candidate tables", err)
	}
	if len(tables) == 0 {
		return nil, ErrNoAvailability
	}
	return tables, nil
}

func slotTaken(tx *gorm.DB, tableID, date, t string) (bool, error) {
	var n int64
	err := tx.Model(&models.Booking{}).
		Where("table_id = ? AND date = ? AND time = ? AND status IN ?", tableID, date, t, models.ActiveStatuses).
		Count(&n).Error
	if err != nil {
		return false, dependency("check slot", err)
	}
	return n > 0, nil
}

// CreateBooking validates the request, claims a table and persists the
// booking in one transaction, then alerts administrators.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*CommitResult, error) {
	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, toInputError(err)
	}

	tables, err := candidates(s.db.WithContext(ctx), req.Guests, req.Date, req.Time, req.TableID)
	if err != nil {
		return nil, err
	}

	bookingID := s.ids.NextBookingID(ctx, req.Date)
	idRetried := false
	for i := 0; i < len(tables); i++ {
		table := tables[i]
		booking, err := s.commit(ctx, bookingID, req, table)
		if errors.Is(err, errSlotTaken) {
			// an id collision looks the same as a lost slot; check which
			if !idRetried && s.bookingExists(ctx, bookingID) {
				idRetried = true
				bookingID = fallbackID(bookingPrefix)
				i--
				continue
			}
			utils.InfoLogger.WithFields(logrus.Fields{
				"table": table.ID,
				"date":  req.Date,
				"time":  req.Time,
			}).Info("Table claimed concurrently, trying next candidate")
			continue
		}
		if err != nil {
			return nil, err
		}

		outcome := s.send(ctx, notify.AdminBookingAlert(*booking))
		utils.InfoLogger.WithFields(logrus.Fields{
			"booking": booking.ID,
			"table":   booking.TableID,
			"notify":  outcome,
		}).Info("Booking created")
		return &CommitResult{Booking: *booking, Notification: outcome}, nil
	}
	return nil, ErrNoAvailability
}

func (s *Service) commit(ctx context.Context, id string, req BookingRequest, candidate models.Table) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, "id = ?", candidate.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if req.TableID != "" {
					return ErrTableNotFound
				}
				return errSlotTaken
			}
			return dependency("load table", err)
		}

		claim := tx.Model(&models.Table{}).Where("id = ?", table.ID)
		if req.TableID == "" {
			// auto-assignment only takes tables nobody else holds
			claim = claim.Where("status = ?", models.TableAvailable)
		}
		res := claim.Update("status", models.TableReserved)
		if res.Error != nil {
			return dependency("reserve table", res.Error)
		}
		if req.TableID == "" && res.RowsAffected == 0 {
			return errSlotTaken
		}

		slot := models.SlotKeyFor(table.ID, req.Date, req.Time)
		booking = models.Booking{
			ID:              id,
			UserID:          req.UserID,
			CustomerName:    req.CustomerName,
			Phone:           req.Phone,
			Email:           req.Email,
			Date:            req.Date,
			Time:            req.Time,
			Guests:          req.Guests,
			TableID:         table.ID,
			TableNumber:     table.TableNumber,
			Status:          models.BookingPending,
			SelectedItems:   req.SelectedItems,
			Total:           req.Total,
			SpecialRequests: req.SpecialRequests,
			SlotKey:         &slot,
		}
		if err := tx.Create(&booking).Error; err != nil {
			if isDuplicateKey(err) {
				return errSlotTaken
			}
			return dependency("create booking", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *Service) bookingExists(ctx context.Context, id string) bool {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Booking{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false
	}
	return n > 0
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	switch from {
	case models.BookingPending:
		return to == models.BookingConfirmed || to == models.BookingRejected || to == models.BookingCancelled
	case models.BookingConfirmed:
		return to == models.BookingCancelled
	}
	return false
}

// UpdateBooking applies a status transition and/or contact edits. Repeating
// the current status is a no-op. Leaving the active states frees the slot
// and the table.
func (s *Service) UpdateBooking(ctx context.Context, id string, upd BookingUpdate) (*models.Booking, error) {
	var (
		booking      models.Booking
		transitioned bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return dependency("load booking", err)
		}

		if upd.Status != nil {
			next := strings.ToUpper(strings.TrimSpace(*upd.Status))
			if !models.ValidBookingStatus(next) {
				return &InputError{Field: "status", Reason: "must be one of PENDING, CONFIRMED, REJECTED, CANCELLED"}
			}
			if next != booking.Status {
				if !CanTransition(booking.Status, next) {
					return &InputError{
						Field:  "status",
						Reason: fmt.Sprintf("cannot change from %s to %s", booking.Status, next),
						Err:    ErrInvalidTransition,
					}
				}
				booking.Status = next
				transitioned = true
				if !models.IsActiveStatus(next) {
					booking.SlotKey = nil
				}
			}
		}

		if err := s.applyContactEdits(&booking, upd); err != nil {
			return err
		}

		if err := tx.Save(&booking).Error; err != nil {
			return dependency("save booking", err)
		}
		if transitioned && !booking.IsActive() {
			return releaseTable(tx, booking.TableID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		utils.InfoLogger.WithFields(logrus.Fields{
			"booking": booking.ID,
			"status":  booking.Status,
		}).Info("Booking status changed")
		if booking.Status == models.BookingConfirmed || booking.Status == models.BookingRejected {
			s.send(ctx, notify.CustomerDecision(booking))
		}
	}
	return &booking, nil
}

func (s *Service) applyContactEdits(b *models.Booking, upd BookingUpdate) error {
	fields := []struct {
		name string
		src  *string
		dst  *string
	}{
		{"customerName", upd.CustomerName, &b.CustomerName},
		{"phone", upd.Phone, &b.Phone},
		{"email", upd.Email, &b.Email},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		v := strings.TrimSpace(*f.src)
		if v == "" {
			return &InputError{Field: f.name, Reason: "cannot be blank"}
		}
		if f.name == "email" && s.validate.Var(v, "email") != nil {
			return &InputError{Field: "email", Reason: "must be a valid email address"}
		}
		*f.dst = v
	}
	if upd.SpecialRequests != nil {
		b.SpecialRequests = *upd.SpecialRequests
	}
	return nil
}

// DeleteBooking removes a booking and frees its table.
func (s *Service) DeleteBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&booking, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return dependency("load booking", err)
		}
		if err := tx.Delete(&booking).Error; err != nil {
			return dependency("delete booking", err)
		}
		return releaseTable(tx, booking.TableID)
	})
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.WithField("booking", id).Info("Booking deleted")
	return &booking, nil
}

// releaseTable returns the table to AVAILABLE. Other active bookings keep
// their slot keys, so the slot itself cannot be double booked.
func releaseTable(tx *gorm.DB, tableID string) error {
	err := tx.Model(&models.Table{}).
		Where("id = ?", tableID).
		Update("status", models.TableAvailable).Error
	return dependency("release table", err)
}

func (s *Service) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, dependency("load booking", err)
	}
	return &booking, nil
}

// ListBookings returns newest first; an empty userID lists everything.
func (s *Service) ListBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var bookings []models.Booking
	if err := q.Find(&bookings).Error; err != nil {
		return nil, dependency("list bookings", err)
	}
	return bookings, nil
}

func (s *Service) send(ctx context.Context, msg notify.Message) notify.Outcome {
	if s.notifier == nil {
		return notify.OutcomeDisabled
	}
	return s.notifier.Send(ctx, msg)
}
