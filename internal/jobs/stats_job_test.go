package jobs

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"earnhub/internal/models"
)

func setupJobDB(t *testing.T) *gorm.DB {
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
		&models.PlatformStats{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	db.Exec("DELETE FROM accounts")
	db.Exec("DELETE FROM reward_events")
	db.Exec("DELETE FROM withdrawal_requests")
	db.Exec("DELETE FROM platform_stats")
	return db
}

func TestSnapshot(t *testing.T) {
	db := setupJobDB(t)

	db.Create(&models.Account{TelegramID: 9001, ReferralCode: "JOBTESTA", Balance: decimal.NewFromInt(300), TotalEarned: decimal.NewFromInt(500)})
	db.Create(&models.Account{TelegramID: 9002, ReferralCode: "JOBTESTB", Balance: decimal.NewFromInt(200), TotalEarned: decimal.NewFromInt(200)})
	db.Create(&models.RewardEvent{TelegramID: 9001, Type: models.EventBonus, Reward: decimal.NewFromInt(500)})
	db.Create(&models.WithdrawalRequest{PublicID: "w-1", TelegramID: 9001, Amount: decimal.NewFromInt(100), Currency: "USDT", Network: "eth", Address: "0x0", Status: models.WithdrawalPending})

	job := NewStatsJob(db, time.UTC)
	job.Snapshot()

	var stats models.PlatformStats
	if err := db.Order("id DESC").First(&stats).Error; err != nil {
		t.Fatalf("expected a stats row: %v", err)
	}
	if stats.TotalAccounts != 2 {
		t.Errorf("expected 2 accounts, got %d", stats.TotalAccounts)
	}
	if !stats.TotalBalance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected total balance 500, got %s", stats.TotalBalance)
	}
	if !stats.TotalEarned.Equal(decimal.NewFromInt(700)) {
		t.Errorf("expected total earned 700, got %s", stats.TotalEarned)
	}
	if stats.TotalEvents != 1 {
		t.Errorf("expected 1 event, got %d", stats.TotalEvents)
	}
	if stats.PendingWithdrawals != 1 {
		t.Errorf("expected 1 pending withdrawal, got %d", stats.PendingWithdrawals)
	}
}

func TestFlagStaleWithdrawals(t *testing.T) {
	db := setupJobDB(t)

	stale := time.Now().Add(-48 * time.Hour)
	db.Create(&models.WithdrawalRequest{PublicID: "w-stale", TelegramID: 9003, Amount: decimal.NewFromInt(100), Currency: "USDT", Network: "eth", Address: "0x0", Status: models.WithdrawalPending, CreatedAt: stale})

	// Must not panic or error; the warning path is exercised by the stale
	// row above.
	job := NewStatsJob(db, time.UTC)
	job.FlagStaleWithdrawals()
}
