package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"earnhub/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// :memory: is unique per connection; cache=shared keeps one DB alive
	// across the pool's connections for the duration of the test binary.
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Account{},
		&models.RewardEvent{},
		&models.WithdrawalRequest{},
		&models.SystemSettings{},
		&models.PlatformStats{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	// Clean all tables so tests do not leak into each other.
	db.Exec("DELETE FROM accounts")
	db.Exec("DELETE FROM reward_events")
	db.Exec("DELETE FROM withdrawal_requests")
	db.Exec("DELETE FROM system_settings")
	db.Exec("DELETE FROM platform_stats")

	return db
}

func setupSettings(t *testing.T, db *gorm.DB) *SettingsService {
	s := NewSettingsService(db)
	if err := s.Ensure(); err != nil {
		t.Fatalf("failed to initialize settings: %v", err)
	}
	return s
}
