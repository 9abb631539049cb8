package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Record is one stored key.
type Record struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// SQLiteBackend stores records in a single GORM-managed table.
type SQLiteBackend struct {
	db *gorm.DB
}

// NewSQLiteBackend opens the database at path. debug turns on GORM's SQL log.
func NewSQLiteBackend(path string, debug bool, log *slog.Logger) (*SQLiteBackend, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Debug("sqlite store opened", "path", path)
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Get(key string) ([]byte, error) {
	var rec Record
	if err := b.db.First(&rec, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return []byte(rec.Value), nil
}

func (b *SQLiteBackend) Put(key string, value []byte) error {
	rec := Record{Key: key, Value: string(value), UpdatedAt: time.Now()}
	err := b.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(key string) error {
	if err := b.db.Delete(&Record{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
