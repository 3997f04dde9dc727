package models

import (
	"strings"
	"time"
)

const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingRejected  = "REJECTED"
	BookingCancelled = "CANCELLED"

	GuestUserID = "guest"
)

// SelectedItem is a dish pre-ordered with a booking. The reservation core
// stores it as-is.
type SelectedItem struct {
	DishID   uint    `json:"dishId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Booking struct {
	ID              string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string         `gorm:"type:varchar(255);not null;index" json:"userId"`
	CustomerName    string         `gorm:"type:varchar(255);not null" json:"customerName"`
	Phone           string         `gorm:"type:varchar(50);not null" json:"phone"`
	Email           string         `gorm:"type:varchar(255);not null" json:"email"`
	Date            string         `gorm:"type:varchar(10);not null;index:idx_booking_slot" json:"date"`
	Time            string         `gorm:"type:varchar(20);not null;index:idx_booking_slot" json:"time"`
	Guests          int            `gorm:"not null" json:"guests"`
	TableID         string         `gorm:"type:varchar(64);not null;index:idx_booking_slot" json:"tableId"`
	TableNumber     string         `gorm:"type:varchar(50)" json:"tableNumber"`
	Status          string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	SelectedItems   []SelectedItem `gorm:"serializer:json" json:"selectedItems"`
	Total           float64        `gorm:"type:decimal(10,2)" json:"total"`
	SpecialRequests string         `gorm:"type:text" json:"specialRequests"`
	// SlotKey is set only while the booking is active; the unique index
	// makes a second active booking for the same table slot fail on write.
	SlotKey   *string   `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// BookingSequence is the per-date counter behind readable booking ids.
type BookingSequence struct {
	Day   string `gorm:"primaryKey;type:varchar(8)"`
	Value int    `gorm:"not null"`
}

// SlotKeyFor builds the value stored in Booking.SlotKey.
func SlotKeyFor(tableID, date, t string) string {
	return strings.Join([]string{tableID, date, t}, "|")
}

// IsActive reports whether the booking still holds its table slot.
func (b Booking) IsActive() bool {
	return IsActiveStatus(b.Status)
}

func IsActiveStatus(s string) bool {
	return s == BookingPending || s == BookingConfirmed
}

func ValidBookingStatus(s string) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingRejected, BookingCancelled:
		return true
	}
	return false
}

// ActiveStatuses lists the statuses that occupy a slot.
var ActiveStatuses = []string{BookingPending, BookingConfirmed}
