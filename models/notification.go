package models

import (
	"time"
)

const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Notification is the delivery log of outbound notifications.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Channel   string    `gorm:"type:varchar(50);not null;index" json:"channel"`
	Recipient string    `gorm:"type:varchar(255)" json:"recipient,omitempty"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Status    string    `gorm:"type:varchar(20);not null" json:"status"`
	Error     string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}
