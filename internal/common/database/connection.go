package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jgirmay/gaia-recall/internal/recall/models"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Options tunes Open. The zero value logs warnings only.
type Options struct {
	LogLevel logger.LogLevel
}

// Open connects to the database based on type. Anything other than
// postgres is treated as SQLite.
func Open(dbType, dsn string, opts Options) (*gorm.DB, error) {
	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}

	var (
		db  *gorm.DB
		err error
	)
	if dbType == TypePostgres {
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
	} else {
		db, err = gorm.Open(sqlite.Open(dsn), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	switch {
	case dbType == TypePostgres:
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	case strings.Contains(dsn, ":memory:"):
		// every connection would get its own empty database
		sqlDB.SetMaxOpenConns(1)
	default:
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(10)
	}

	return db, nil
}

// AutoMigrate creates or updates the recall tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.ReviewItem{}, &models.CommandMastery{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the database connection
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
