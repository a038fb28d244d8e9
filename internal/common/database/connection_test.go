package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

func TestOpenMemoryAndMigrate(t *testing.T) {
	db, err := Open(TypeSQLite, "file::memory:", Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable(&models.ReviewItem{}))
	assert.True(t, db.Migrator().HasTable("command_masteries"))
	assert.True(t, db.Migrator().HasIndex(&models.ReviewItem{}, "idx_review_user_item"))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recall.db")
	db, err := Open(TypeSQLite, path+"?mode=rwc&cache=shared&timeout=5000", Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	require.NoError(t, Close(db))

	assert.FileExists(t, path)
}
