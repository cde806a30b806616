package repository

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"linkdeck-backend/internal/ingest/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.SyncRun{},
		&domain.Email{},
		&domain.Link{},
		&domain.SyncLogEntry{},
		&domain.Sender{},
		&domain.StoredCredential{},
		&domain.Settings{},
	))
	return db
}
