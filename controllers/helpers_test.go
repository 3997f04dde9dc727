package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/brewcraft/restaurant-backend/cache"
	"github.com/brewcraft/restaurant-backend/chat"
	"github.com/brewcraft/restaurant-backend/config"
	"github.com/brewcraft/restaurant-backend/database"
	"github.com/brewcraft/restaurant-backend/hub"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/notify"
	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/router"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/brewcraft/restaurant-backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitLogger()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

type sentMessages struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (s *sentMessages) Send(_ context.Context, msg notify.Message) notify.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return notify.OutcomeDispatched
}

func (s *sentMessages) all() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Message(nil), s.msgs...)
}

// fakeConn records hub writes.
type fakeConn struct {
	mu     sync.Mutex
	events []string
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	var m struct {
		Event string `json:"event"`
	}
	_ = json.Unmarshal(data, &m)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, m.Event)
	return nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func tokenFor(t *testing.T, id uint, username, role string) string {
	t.Helper()
	token, err := utils.GenerateToken(id, username, role)
	require.NoError(t, err)
	return token
}

func seedTable(t *testing.T, db *gorm.DB, id string, seats int, status string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Table{
		ID: id, TableNumber: id, Seats: seats, Status: status,
	}).Error)
}

type fakeStore struct {
	keys []string
}

func (s *fakeStore) Put(_ context.Context, key string, body []byte, contentType string) (string, error) {
	s.keys = append(s.keys, key+"|"+contentType)
	return "https://images.example/" + key, nil
}

type fakeReconciler struct{ calls int }

func (f *fakeReconciler) RunOnce(context.Context) (reservation.ReconcileReport, error) {
	f.calls++
	return reservation.ReconcileReport{Released: []string{"TBL-001"}}, nil
}

type testServer struct {
	router     *gin.Engine
	db         *gorm.DB
	hub        *hub.Hub
	sent       *sentMessages
	store      *fakeStore
	reconciler *fakeReconciler
	admin      string
	alice      string
	bob        string
}

func newServer(t *testing.T, opts ...func(*router.Dependencies)) *testServer {
	t.Helper()
	db := setupTestDB(t)
	h := hub.New()
	sent := &sentMessages{}
	store := &fakeStore{}
	rec := &fakeReconciler{}

	deps := router.Dependencies{
		DB:              db,
		Reservations:    reservation.NewService(db, sent),
		Chat:            chat.NewService(db, h),
		Hub:             h,
		Cache:           cache.New(nil, 0),
		Store:           store,
		Contact:         workflow.InlineStarter{Sender: sent},
		Notifier:        sent,
		NotificationLog: database.NewNotificationLog(db),
		Reconciler:      rec,
		Server:          config.ServerConfig{AllowedOrigins: []string{"*"}},
	}
	for _, opt := range opts {
		opt(&deps)
	}
	r := router.SetupRouter(deps)

	return &testServer{
		router:     r,
		db:         db,
		hub:        h,
		sent:       sent,
		store:      store,
		reconciler: rec,
		admin:      tokenFor(t, 1, "admin", models.RoleAdmin),
		alice:      tokenFor(t, 2, "alice", models.RoleCustomer),
		bob:        tokenFor(t, 3, "bob", models.RoleCustomer),
	}
}
