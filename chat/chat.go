// Package chat stores direct messages between customers and staff and
// relays them over the websocket hub.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/brewcraft/restaurant-backend/hub"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionSendMessage      = "sendMessage"
	ActionGetMessages      = "getMessages"
	ActionGetUsers         = "getUsers"
	ActionGetConversations = "getConversations"

	FrameNewMessage       = "newMessage"
	FrameMessageHistory   = "messageHistory"
	FrameUserList         = "userList"
	FrameConversationList = "conversationList"
	FrameError            = "error"

	historyLimit      = 200
	conversationsScan = 1000
	maxMessageLen     = 2000
)

var ErrEmptyMessage = errors.New("message cannot be empty")

type Service struct {
	db  *gorm.DB
	hub *hub.Hub
}

func NewService(db *gorm.DB, h *hub.Hub) *Service {
	return &Service{db: db, hub: h}
}

// ConversationID is the same for both participants.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

type Conversation struct {
	ConversationID string    `json:"conversationId"`
	UserID         string    `json:"userId"`
	LastMessage    string    `json:"lastMessage"`
	LastSenderID   string    `json:"lastSenderId"`
	LastTimestamp  time.Time `json:"lastTimestamp"`
	Unread         int       `json:"unread"`
}

type OnlineUser struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// Send persists a message and pushes it to every connection of both users.
func (s *Service) Send(ctx context.Context, senderID, recipientID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if recipientID == "" || recipientID == senderID {
		return nil, errors.New("invalid recipient")
	}
	text = truncate(text, maxMessageLen)

	msg := models.ChatMessage{
		ID:             uuid.NewString(),
		ConversationID: ConversationID(senderID, recipientID),
		SenderID:       senderID,
		RecipientID:    recipientID,
		Message:        text,
		SentAt:         time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}

	s.hub.SendRaw(newMessageFrame(msg), senderID, recipientID)
	return &msg, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// History returns the conversation oldest first and marks messages to
// reader as read.
func (s *Service) History(ctx context.Context, reader, other string) ([]models.ChatMessage, error) {
	convID := ConversationID(reader, other)
	var msgs []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("sent_at DESC").
		Limit(historyLimit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	// newest page, returned in chronological order
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	if err := s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("conversation_id = ? AND recipient_id = ? AND is_read = ?", convID, reader, false).
		Update("is_read", true).Error; err != nil {
		utils.ErrorLogger.Printf("chat: mark read %s: %v", convID, err)
	}
	return msgs, nil
}

// Conversations lists userID's conversations, most recent first.
func (s *Service) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	var msgs []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("sent_at DESC").
		Limit(conversationsScan).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	out := []Conversation{}
	for _, m := range msgs {
		i, seen := index[m.ConversationID]
		if !seen {
			other := m.RecipientID
			if other == userID {
				other = m.SenderID
			}
			out = append(out, Conversation{
				ConversationID: m.ConversationID,
				UserID:         other,
				LastMessage:    m.Message,
				LastSenderID:   m.SenderID,
				LastTimestamp:  m.SentAt,
			})
			i = len(out) - 1
			index[m.ConversationID] = i
		}
		if m.RecipientID == userID && !m.IsRead {
			out[i].Unread++
		}
	}
	return out, nil
}

// OnlineUsers lists connected users, excluding guests, optionally by role.
func (s *Service) OnlineUsers(role string) []OnlineUser {
	out := []OnlineUser{}
	for _, c := range s.hub.OnlineUsers(role) {
		if c.UserID == "" || c.UserID == models.GuestUserID {
			continue
		}
		out = append(out, OnlineUser{UserID: c.UserID, Role: c.Role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// Frame is an inbound websocket request.
type Frame struct {
	Action      string `json:"action"`
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
	User1       string `json:"user1"`
	User2       string `json:"user2"`
	Role        string `json:"role"`
}

// HandleFrame executes one client request. The sender is always the
// authenticated client, whatever the frame claims.
func (s *Service) HandleFrame(ctx context.Context, conn hub.Conn, client hub.Client, raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		s.replyError(conn, "invalid frame")
		return
	}

	switch f.Action {
	case ActionSendMessage:
		if _, err := s.Send(ctx, client.UserID, f.RecipientID, f.Message); err != nil {
			s.replyError(conn, err.Error())
		}

	case ActionGetMessages:
		other := f.User2
		if other == client.UserID || other == "" {
			other = f.User1
		}
		msgs, err := s.History(ctx, client.UserID, other)
		if err != nil {
			s.replyError(conn, "could not load messages")
			return
		}
		s.reply(conn, map[string]interface{}{"type": FrameMessageHistory, "messages": msgs})

	case ActionGetUsers:
		if client.Role != models.RoleAdmin {
			s.replyError(conn, "forbidden")
			return
		}
		role := f.Role
		if role == "" {
			role = models.RoleCustomer
		}
		s.reply(conn, map[string]interface{}{"type": FrameUserList, "users": s.OnlineUsers(role)})

	case ActionGetConversations:
		convs, err := s.Conversations(ctx, client.UserID)
		if err != nil {
			s.replyError(conn, "could not load conversations")
			return
		}
		s.reply(conn, map[string]interface{}{"type": FrameConversationList, "conversations": convs})

	default:
		s.replyError(conn, "unknown action "+f.Action)
	}
}

func (s *Service) reply(conn hub.Conn, v interface{}) {
	if err := s.hub.SendTo(conn, v); err != nil {
		utils.ErrorLogger.Printf("chat: reply failed: %v", err)
	}
}

func (s *Service) replyError(conn hub.Conn, msg string) {
	s.reply(conn, map[string]string{"type": FrameError, "message": msg})
}

func newMessageFrame(m models.ChatMessage) map[string]interface{} {
	return map[string]interface{}{
		"type":           FrameNewMessage,
		"messageId":      m.ID,
		"conversationId": m.ConversationID,
		"senderId":       m.SenderID,
		"recipientId":    m.RecipientID,
		"message":        m.Message,
		"timestamp":      m.SentAt,
	}
}
