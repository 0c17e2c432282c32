package datastore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
)

// SQLiteStore implements the datastore Interface for SQLite.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection and runs migrations.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Realtime.SQLite.Path
	if path == "" {
		return fmt.Errorf("sqlite database path is not configured")
	}

	gormLogLevel := logger.Silent
	if store.Settings.Debug {
		gormLogLevel = logger.Warn
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store.DB = db
	return performAutoMigration(db)
}

// Close releases the underlying database connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve database connection: %w", err)
	}
	return sqlDB.Close()
}
