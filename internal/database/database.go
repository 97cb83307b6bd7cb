// package database provides sqlite connection management for the archive.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/telibelly/telibelly/internal/models"
)

// DB wraps the GORM sqlite instance.
type DB struct {
	GORM *gorm.DB
}

// New opens the sqlite archive at path and migrates the schema.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	gormDB, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := gormDB.AutoMigrate(&models.Message{}, &models.Channel{}, &models.Tag{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &DB{GORM: gormDB}, nil
}

// NewInMemory opens a fresh in-memory database, used by tests.
func NewInMemory() (*DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open in-memory sqlite: %w", err)
	}

	if err := gormDB.AutoMigrate(&models.Message{}, &models.Channel{}, &models.Tag{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &DB{GORM: gormDB}, nil
}

// Ping checks if the database is reachable.
func (db *DB) Ping() error {
	sqlDB, err := db.GORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	sqlDB, err := db.GORM.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
