package database

import (
	"context"
	"testing"

	"github.com/brewcraft/restaurant-backend/config"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"}, false)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, false)
	assert.Error(t, err)
}

func TestNotificationLogRecent(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"}, false)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	log := NewNotificationLog(db)
	ctx := context.Background()
	require.NoError(t, log.Record(ctx, &models.Notification{Channel: "admin", Title: "a", Message: "first", Status: models.NotificationSent}))
	require.NoError(t, log.Record(ctx, &models.Notification{Channel: "customer", Title: "b", Message: "second", Status: models.NotificationFailed}))
	require.NoError(t, log.Record(ctx, &models.Notification{Channel: "admin", Title: "c", Message: "third", Status: models.NotificationSent}))

	all, err := log.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Message)

	admin, err := log.Recent(ctx, "admin", 10)
	require.NoError(t, err)
	assert.Len(t, admin, 2)
}

func TestEnsureAdminIsVerifiedAndIdempotent(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"}, false)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	cfg := config.AdminConfig{Username: "admin", Password: "admin-pass"}
	require.NoError(t, EnsureAdmin(db, cfg))
	require.NoError(t, EnsureAdmin(db, cfg))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.True(t, users[0].Verified)
	assert.True(t, users[0].IsAdmin())
	assert.Equal(t, "admin@localhost", users[0].Email)
}
