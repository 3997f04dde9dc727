package database

import (
	"context"

	"github.com/brewcraft/restaurant-backend/models"
	"gorm.io/gorm"
)

// NotificationLog persists notification outcomes.
type NotificationLog struct {
	DB *gorm.DB
}

func NewNotificationLog(db *gorm.DB) *NotificationLog {
	return &NotificationLog{DB: db}
}

func (l *NotificationLog) Record(ctx context.Context, n *models.Notification) error {
	return l.DB.WithContext(ctx).Create(n).Error
}

// Recent returns the newest entries first, optionally filtered by channel.
func (l *NotificationLog) Recent(ctx context.Context, channel string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := l.DB.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if channel != "" {
		q = q.Where("channel = ?", channel)
	}
	var out []models.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
