package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"earnhub/internal/models"
)

const testEVMAddress = "0x52908400098527886E0F7030069857D2E4169EE7"

func newWithdrawals(t *testing.T) (*WithdrawalService, *SettingsService, *AccountService) {
	db := setupTestDB(t)
	settings := setupSettings(t, db)
	referrals := NewReferralService(db, settings, nil)
	accounts := NewAccountService(db, referrals)
	withdrawals := NewWithdrawalService(db, settings, nil)
	return withdrawals, settings, accounts
}

func seedBalance(t *testing.T, s *WithdrawalService, telegramID int64, amount int64) {
	res := s.db.Model(&models.Account{}).
		Where("telegram_id = ?", telegramID).
		Update("balance", decimal.NewFromInt(amount))
	if res.Error != nil || res.RowsAffected == 0 {
		t.Fatalf("failed to seed balance for %d", telegramID)
	}
}

func TestSubmitAndCompleteScenario(t *testing.T) {
	withdrawals, _, accounts := newWithdrawals(t)
	if _, _, err := accounts.GetOrCreate(2001, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	seedBalance(t, withdrawals, 2001, 2000)

	result, err := withdrawals.Submit(2001, decimal.NewFromInt(1000), "usdt", "eth", testEVMAddress, "manual")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if result.Withdrawal.Status != models.WithdrawalPending {
		t.Errorf("expected pending status, got %s", result.Withdrawal.Status)
	}
	// Default fee is 50: 2000 - 1000 - 50 = 950.
	if !result.NewBalance.Equal(decimal.NewFromInt(950)) {
		t.Errorf("expected balance 950 after deduction, got %s", result.NewBalance)
	}

	updated, err := withdrawals.Transition(result.Withdrawal.PublicID, models.WithdrawalCompleted, TransitionInput{
		TransactionID: "tx123",
	})
	if err != nil {
		t.Fatalf("Transition to completed failed: %v", err)
	}
	if updated.Status != models.WithdrawalCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}
	if updated.TransactionID != "tx123" {
		t.Errorf("expected transaction id tx123, got %q", updated.TransactionID)
	}
	if updated.ProcessedAt == nil {
		t.Error("expected processed_at to be stamped")
	}

	// Completion does not touch the balance again.
	var account models.Account
	withdrawals.db.Where("telegram_id = ?", int64(2001)).First(&account)
	if !account.Balance.Equal(decimal.NewFromInt(950)) {
		t.Errorf("expected balance still 950, got %s", account.Balance)
	}
}

func TestSubmitInsufficientBalance(t *testing.T) {
	withdrawals, _, accounts := newWithdrawals(t)
	if _, _, err := accounts.GetOrCreate(2002, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	seedBalance(t, withdrawals, 2002, 500)

	_, err := withdrawals.Submit(2002, decimal.NewFromInt(1000), "usdt", "eth", testEVMAddress, "manual")
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// No request row may exist after a rejected submit.
	var count int64
	withdrawals.db.Model(&models.WithdrawalRequest{}).Where("telegram_id = ?", int64(2002)).Count(&count)
	if count != 0 {
		t.Errorf("expected no withdrawal rows, got %d", count)
	}

	var account models.Account
	withdrawals.db.Where("telegram_id = ?", int64(2002)).First(&account)
	if !account.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected balance unchanged at 500, got %s", account.Balance)
	}
}

func TestSubmitValidation(t *testing.T) {
	withdrawals, _, accounts := newWithdrawals(t)
	if _, _, err := accounts.GetOrCreate(2003, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	seedBalance(t, withdrawals, 2003, 10000)

	if _, err := withdrawals.Submit(2003, decimal.NewFromInt(-5), "usdt", "eth", testEVMAddress, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative amount: expected ErrInvalidInput, got %v", err)
	}
	// Default minimum withdrawal is 100.
	if _, err := withdrawals.Submit(2003, decimal.NewFromInt(10), "usdt", "eth", testEVMAddress, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("below minimum: expected ErrInvalidInput, got %v", err)
	}
	if _, err := withdrawals.Submit(2003, decimal.NewFromInt(500), "usdt", "dogecoin", testEVMAddress, ""); !errors.Is(err, ErrInvalidNetwork) {
		t.Errorf("unknown network: expected ErrInvalidNetwork, got %v", err)
	}
	if _, err := withdrawals.Submit(2003, decimal.NewFromInt(500), "usdt", "eth", "not-an-address", ""); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("bad EVM address: expected ErrInvalidAddress, got %v", err)
	}
	if _, err := withdrawals.Submit(2003, decimal.NewFromInt(500), "usdt", "sol", "0Il-invalid", ""); !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("bad base58 address: expected ErrInvalidAddress, got %v", err)
	}
}

func TestWithdrawalsPaused(t *testing.T) {
	withdrawals, settings, accounts := newWithdrawals(t)
	if _, _, err := accounts.GetOrCreate(2004, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	seedBalance(t, withdrawals, 2004, 10000)

	paused := true
	if _, err := settings.Update(SettingsUpdate{WithdrawalsPaused: &paused}); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}

	_, err := withdrawals.Submit(2004, decimal.NewFromInt(500), "usdt", "eth", testEVMAddress, "")
	if !errors.Is(err, ErrWithdrawalsPaused) {
		t.Fatalf("expected ErrWithdrawalsPaused, got %v", err)
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	withdrawals, _, accounts := newWithdrawals(t)
	if _, _, err := accounts.GetOrCreate(2005, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	seedBalance(t, withdrawals, 2005, 10000)

	result, err := withdrawals.Submit(2005, decimal.NewFromInt(500), "usdt", "eth", testEVMAddress, "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	id := result.Withdrawal.PublicID

	if _, err := withdrawals.Transition(id, models.WithdrawalProcessing, TransitionInput{}); err != nil {
		t.Fatalf("pending -> processing failed: %v", err)
	}
	if _, err := withdrawals.Transition(id, models.WithdrawalCompleted, TransitionInput{TransactionID: "tx9"}); err != nil {
		t.Fatalf("processing -> completed failed: %v", err)
	}

	for _, target := range []string{
		models.WithdrawalPending,
		models.WithdrawalProcessing,
		models.WithdrawalFailed,
		models.WithdrawalCancelled,
	} {
		_, err := withdrawals.Transition(id, target, TransitionInput{})
		if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrInvalidInput) {
			t.Errorf("completed -> %s: expected rejection, got %v", target, err)
		}
	}
}

func TestCancelOnlyFromPending(t *testing.T) {
	withdrawals, _, accounts := newWithdrawals(t)
	if _, _, err := accounts.GetOrCreate(2006, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	seedBalance(t, withdrawals, 2006, 10000)

	result, err := withdrawals.Submit(2006, decimal.NewFromInt(500), "usdt", "eth", testEVMAddress, "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	id := result.Withdrawal.PublicID

	if _, err := withdrawals.Transition(id, models.WithdrawalProcessing, TransitionInput{}); err != nil {
		t.Fatalf("pending -> processing failed: %v", err)
	}
	if _, err := withdrawals.Transition(id, models.WithdrawalCancelled, TransitionInput{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("processing -> cancelled: expected ErrInvalidTransition, got %v", err)
	}
}

func TestFailedWithdrawalRefund(t *testing.T) {
	withdrawals, _, accounts := newWithdrawals(t)
	if _, _, err := accounts.GetOrCreate(2007, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	seedBalance(t, withdrawals, 2007, 2000)

	result, err := withdrawals.Submit(2007, decimal.NewFromInt(1000), "usdt", "eth", testEVMAddress, "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !result.NewBalance.Equal(decimal.NewFromInt(950)) {
		t.Fatalf("expected balance 950 after submit, got %s", result.NewBalance)
	}

	updated, err := withdrawals.Transition(result.Withdrawal.PublicID, models.WithdrawalFailed, TransitionInput{
		Reason: "destination rejected",
	})
	if err != nil {
		t.Fatalf("Transition to failed: %v", err)
	}
	if updated.FailureReason != "destination rejected" {
		t.Errorf("expected failure reason stored, got %q", updated.FailureReason)
	}

	// Refund-on-failure is enabled by default: amount plus fee comes back.
	var account models.Account
	withdrawals.db.Where("telegram_id = ?", int64(2007)).First(&account)
	if !account.Balance.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected balance restored to 2000, got %s", account.Balance)
	}

	// The ledger reconciles: deduction event plus refund event cancel out.
	var events []models.RewardEvent
	withdrawals.db.Where("telegram_id = ? AND type = ?", int64(2007), models.EventWithdrawal).Find(&events)
	sum := decimal.Zero
	for _, e := range events {
		sum = sum.Add(e.Reward)
	}
	if !sum.IsZero() {
		t.Errorf("expected withdrawal events to sum to zero after refund, got %s", sum)
	}
}

func TestRefundDisabled(t *testing.T) {
	withdrawals, settings, accounts := newWithdrawals(t)
	if _, _, err := accounts.GetOrCreate(2008, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	seedBalance(t, withdrawals, 2008, 2000)

	noRefund := false
	if _, err := settings.Update(SettingsUpdate{RefundOnFailure: &noRefund}); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}

	result, err := withdrawals.Submit(2008, decimal.NewFromInt(1000), "usdt", "eth", testEVMAddress, "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if _, err := withdrawals.Transition(result.Withdrawal.PublicID, models.WithdrawalCancelled, TransitionInput{}); err != nil {
		t.Fatalf("Transition to cancelled failed: %v", err)
	}

	var account models.Account
	withdrawals.db.Where("telegram_id = ?", int64(2008)).First(&account)
	if !account.Balance.Equal(decimal.NewFromInt(950)) {
		t.Errorf("expected no refund with policy disabled, balance %s", account.Balance)
	}
}

func TestTransitionReplayRejected(t *testing.T) {
	withdrawals, _, accounts := newWithdrawals(t)
	if _, _, err := accounts.GetOrCreate(2009, ""); err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	seedBalance(t, withdrawals, 2009, 10000)

	result, err := withdrawals.Submit(2009, decimal.NewFromInt(500), "usdt", "eth", testEVMAddress, "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if _, err := withdrawals.Transition(result.Withdrawal.PublicID, models.WithdrawalProcessing, TransitionInput{}); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}

	// A second operator replaying the same pending->processing intent
	// finds the row already moved on and is rejected.
	_, err = withdrawals.Transition(result.Withdrawal.PublicID, models.WithdrawalProcessing, TransitionInput{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on replayed transition, got %v", err)
	}
}

func TestTransitionUnknownWithdrawal(t *testing.T) {
	withdrawals, _, _ := newWithdrawals(t)

	_, err := withdrawals.Transition("00000000-0000-0000-0000-000000000000", models.WithdrawalProcessing, TransitionInput{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
