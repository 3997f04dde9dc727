package reservation

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/brewcraft/restaurant-backend/database"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (r *recordingNotifier) Send(_ context.Context, msg notify.Message) notify.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return notify.OutcomeDispatched
}

func (r *recordingNotifier) channels() []notify.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Channel
	for _, m := range r.msgs {
		out = append(out, m.Channel)
	}
	return out
}

func seedTable(t *testing.T, db *gorm.DB, id string, seats int, status string) models.Table {
	t.Helper()
	table := models.Table{ID: id, TableNumber: "T" + id[len(id)-1:], Seats: seats, Status: status}
	require.NoError(t, db.Create(&table).Error)
	return table
}

func bookingRequest(guests int) BookingRequest {
	return BookingRequest{
		CustomerName: "Ada Lovelace",
		Phone:        "555-0100",
		Email:        "ada@example.com",
		Date:         "2024-02-15",
		Time:         "19:00",
		Guests:       guests,
	}
}

func tableStatus(t *testing.T, db *gorm.DB, id string) string {
	t.Helper()
	var table models.Table
	require.NoError(t, db.First(&table, "id = ?", id).Error)
	return table.Status
}
