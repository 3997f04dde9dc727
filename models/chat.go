package models

import "time"

type ChatMessage struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"messageId"`
	ConversationID string    `gorm:"type:varchar(512);not null;index:idx_conversation_time" json:"conversationId"`
	SenderID       string    `gorm:"type:varchar(255);not null;index" json:"senderId"`
	RecipientID    string    `gorm:"type:varchar(255);not null;index" json:"recipientId"`
	Message        string    `gorm:"type:text;not null" json:"message"`
	IsRead         bool      `gorm:"not null;default:false" json:"read"`
	SentAt         time.Time `gorm:"not null;index:idx_conversation_time" json:"timestamp"`
}
