package models

import "time"

const (
	TableAvailable = "AVAILABLE"
	TableReserved  = "RESERVED"
)

type Table struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TableNumber string    `gorm:"type:varchar(50);not null" json:"tableNumber"`
	Seats       int       `gorm:"not null;index" json:"seats"`
	Location    string    `gorm:"type:varchar(100)" json:"location,omitempty"`
	Status      string    `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	CreatedAt   time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" json:"updatedAt"`
}

// ValidTableStatus reports whether s is a status a table may carry.
func ValidTableStatus(s string) bool {
	return s == TableAvailable || s == TableReserved
}
