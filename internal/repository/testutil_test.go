package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cropstech/crops-backend/internal/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Workspace{},
		&model.WorkspaceMember{},
		&model.Board{},
		&model.Asset{},
		&model.BoardAsset{},
		&model.Comment{},
		&model.Event{},
		&model.Follow{},
		&model.ExplicitUnfollow{},
		&model.NotificationPreference{},
		&model.Notification{},
		&model.DigestQueueEntry{},
		&model.DigestState{},
	))
	return db
}
