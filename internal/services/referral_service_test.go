package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"earnhub/internal/models"
)

func newAccounts(t *testing.T) (*AccountService, *ReferralService) {
	db := setupTestDB(t)
	settings := setupSettings(t, db)
	referrals := NewReferralService(db, settings, nil)
	accounts := NewAccountService(db, referrals)
	return accounts, referrals
}

func TestReferralAttribution(t *testing.T) {
	accounts, referrals := newAccounts(t)

	referrer, created, err := accounts.GetOrCreate(3001, "")
	if err != nil {
		t.Fatalf("GetOrCreate referrer failed: %v", err)
	}
	if !created {
		t.Fatal("expected referrer account to be created")
	}
	if referrer.ReferralCode == "" {
		t.Fatal("expected a generated referral code")
	}

	referred, created, err := accounts.GetOrCreate(3002, referrer.ReferralCode)
	if err != nil {
		t.Fatalf("GetOrCreate referred failed: %v", err)
	}
	if !created {
		t.Fatal("expected referred account to be created")
	}
	if referred.ReferredBy == nil || *referred.ReferredBy != referrer.ReferralCode {
		t.Error("expected referred_by to record the referrer's code")
	}

	var updated models.Account
	referrals.db.Where("telegram_id = ?", int64(3001)).First(&updated)
	if updated.ReferralCount != 1 {
		t.Errorf("expected referral count 1, got %d", updated.ReferralCount)
	}
	// Default referral bonus is 100.
	if !updated.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected referrer balance 100, got %s", updated.Balance)
	}
	if !updated.ReferralEarnings.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected referral earnings 100, got %s", updated.ReferralEarnings)
	}

	var events []models.RewardEvent
	referrals.db.Where("telegram_id = ? AND type = ?", int64(3001), models.EventReferral).Find(&events)
	if len(events) != 1 {
		t.Fatalf("expected 1 referral event, got %d", len(events))
	}
	if !events[0].Reward.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected event reward 100, got %s", events[0].Reward)
	}
}

func TestReferralUnknownCodeIgnored(t *testing.T) {
	accounts, _ := newAccounts(t)

	account, created, err := accounts.GetOrCreate(3003, "NOSUCHCODE")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if !created {
		t.Fatal("expected account to be created despite unknown code")
	}
	if account.ReferredBy != nil {
		t.Error("unknown referral code must leave referred_by unset")
	}
}

func TestReferralSelfIgnored(t *testing.T) {
	accounts, referrals := newAccounts(t)

	first, _, err := accounts.GetOrCreate(3004, "")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	// Using your own code on a later login must not credit anything.
	if got := referrals.Attribute(3004, first.ReferralCode); got != "" {
		t.Errorf("self-referral must be ignored, got %q", got)
	}

	var updated models.Account
	referrals.db.Where("telegram_id = ?", int64(3004)).First(&updated)
	if updated.ReferralCount != 0 {
		t.Errorf("expected referral count 0, got %d", updated.ReferralCount)
	}
}

func TestAttributionHappensOnce(t *testing.T) {
	accounts, referrals := newAccounts(t)

	referrer, _, err := accounts.GetOrCreate(3005, "")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if _, _, err := accounts.GetOrCreate(3006, referrer.ReferralCode); err != nil {
		t.Fatalf("GetOrCreate referred failed: %v", err)
	}

	// A repeat login with the same code hits the existing-account path and
	// must not re-credit the referrer.
	if _, created, err := accounts.GetOrCreate(3006, referrer.ReferralCode); err != nil || created {
		t.Fatalf("expected existing account, created=%v err=%v", created, err)
	}

	var updated models.Account
	referrals.db.Where("telegram_id = ?", int64(3005)).First(&updated)
	if updated.ReferralCount != 1 {
		t.Errorf("expected referral count still 1, got %d", updated.ReferralCount)
	}
}

func TestAccountDelete(t *testing.T) {
	accounts, _ := newAccounts(t)

	if _, _, err := accounts.GetOrCreate(3007, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if err := accounts.Delete(3007); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := accounts.GetByTelegramID(3007); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := accounts.Delete(3007); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}
