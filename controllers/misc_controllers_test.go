package controllers_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadImage(t *testing.T) {
	s := newServer(t)
	payload := base64.StdEncoding.EncodeToString([]byte("\x89PNG fake image"))

	w, env := do(t, s.router, http.MethodPost, "/admin/upload", s.admin, map[string]string{
		"file": "data:image/png;base64," + payload, "fileName": "../latte art.png",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.True(t, strings.HasPrefix(out.Key, "menu/"))
	assert.True(t, strings.HasSuffix(out.Key, "-latte-art.png"))
	assert.Equal(t, "https://images.example/"+out.Key, out.URL)
	require.Len(t, s.store.keys, 1)
	assert.True(t, strings.HasSuffix(s.store.keys[0], "|image/png"))

	w, _ = do(t, s.router, http.MethodPost, "/admin/upload", s.admin, map[string]string{"file": "!!!", "fileName": "x.png"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, s.router, http.MethodPost, "/admin/upload", s.admin, map[string]string{"fileName": "x.png"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitContact(t *testing.T) {
	s := newServer(t)

	w, env := do(t, s.router, http.MethodPost, "/contact", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "message": "Do you cater?",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), "executionId")

	msgs := s.sent.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, notify.ChannelContact, msgs[0].Channel)

	w, env = do(t, s.router, http.MethodPost, "/contact", "", map[string]string{
		"name": "Ada", "email": "not-an-email", "message": "hi",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Message, "email")
}

func TestNotifications(t *testing.T) {
	s := newServer(t)
	require.NoError(t, s.db.Create(&models.Notification{
		Channel: "admin", Title: "New booking", Message: "BK-20240215-001", Status: models.NotificationSent,
	}).Error)

	w, env := do(t, s.router, http.MethodGet, "/admin/notifications?channel=admin", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Notification
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	w, _ = do(t, s.router, http.MethodPost, "/admin/notifications", s.admin, map[string]string{
		"userId": "alice", "title": "Patio open", "message": "Our patio opens Friday",
	})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	msgs := s.sent.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice", msgs[0].Attributes["userId"])

	w, _ = do(t, s.router, http.MethodPost, "/admin/notifications", s.admin, map[string]string{
		"userId": "guest", "title": "x", "message": "y",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcileAndDashboard(t *testing.T) {
	s := newServer(t)
	seedTable(t, s.db, "TBL-001", 4, models.TableAvailable)
	createBooking(t, s, s.alice, bookingBody(2))

	w, env := do(t, s.router, http.MethodPost, "/admin/reconcile", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "TBL-001")
	assert.Equal(t, 1, s.reconciler.calls)

	w, env = do(t, s.router, http.MethodGet, "/admin/dashboard?date=2024-02-15", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats struct {
		Tables []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"tables"`
		TodayBookings int64 `json:"todayBookings"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(1), stats.TodayBookings)
	require.Len(t, stats.Tables, 1)
	assert.Equal(t, models.TableReserved, stats.Tables[0].Status)
}

func TestChatREST(t *testing.T) {
	s := newServer(t)

	w, _ := do(t, s.router, http.MethodPost, "/chat/messages", s.alice, map[string]string{
		"recipientId": "admin", "message": "Table for two tonight?",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env := do(t, s.router, http.MethodGet, "/chat/messages?with=admin", s.alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs []models.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice", msgs[0].SenderID)

	w, _ = do(t, s.router, http.MethodGet, "/chat/messages", s.alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, s.router, http.MethodGet, "/admin/chat/conversations", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"userId":"alice"`)

	w, _ = do(t, s.router, http.MethodGet, "/admin/chat/conversations", s.alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
