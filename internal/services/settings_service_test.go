package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"earnhub/internal/models"
)

func TestSettingsEnsureCreatesSingleton(t *testing.T) {
	db := setupTestDB(t)

	service := NewSettingsService(db)
	if err := service.Ensure(); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	var count int64
	db.Model(&models.SystemSettings{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one settings row, got %d", count)
	}

	// Second Ensure must reuse the existing row, not create another.
	if err := service.Ensure(); err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	db.Model(&models.SystemSettings{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected still one settings row, got %d", count)
	}

	current := service.Current()
	if !current.MinWithdrawal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected default min withdrawal 100, got %s", current.MinWithdrawal)
	}
	if !current.RefundOnFailure {
		t.Error("expected refund-on-failure enabled by default")
	}
}

func TestSettingsUpdateRefreshesSnapshot(t *testing.T) {
	db := setupTestDB(t)
	service := setupSettings(t, db)

	min := decimal.NewFromInt(250)
	limit := 7
	if _, err := service.Update(SettingsUpdate{MinWithdrawal: &min, DailyAdLimit: &limit}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	current := service.Current()
	if !current.MinWithdrawal.Equal(min) {
		t.Errorf("expected min withdrawal %s, got %s", min, current.MinWithdrawal)
	}
	if current.DailyAdLimit != limit {
		t.Errorf("expected daily ad limit %d, got %d", limit, current.DailyAdLimit)
	}

	// The row persisted too.
	var row models.SystemSettings
	if err := db.First(&row, 1).Error; err != nil {
		t.Fatalf("failed to load settings row: %v", err)
	}
	if !row.MinWithdrawal.Equal(min) {
		t.Errorf("expected persisted min withdrawal %s, got %s", min, row.MinWithdrawal)
	}
}

func TestSettingsUpdateRejectsNegative(t *testing.T) {
	db := setupTestDB(t)
	service := setupSettings(t, db)

	bad := decimal.NewFromInt(-1)
	if _, err := service.Update(SettingsUpdate{MinWithdrawal: &bad}); err != ErrInvalidInput {
		t.Errorf("expected ErrInvalidInput for negative minimum, got %v", err)
	}

	badLimit := -3
	if _, err := service.Update(SettingsUpdate{DailyTaskLimit: &badLimit}); err != ErrInvalidInput {
		t.Errorf("expected ErrInvalidInput for negative limit, got %v", err)
	}
}
