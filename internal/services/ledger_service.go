package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"earnhub/internal/models"
	"earnhub/internal/notify"
)

// Gated action names accepted by CheckDailyEligibility and used to pick
// the gate columns inside ApplyReward.
const (
	ActionAdView = "ad_view"
	ActionSpin   = "spin"
	ActionTask   = "task"
)

// SpinRewardAmounts is the discrete set of allowed spin-wheel payouts.
// Any other value is rejected.
var SpinRewardAmounts = []int64{50, 100, 200, 500, 1000}

// LedgerService applies rewards to accounts and appends the matching
// reward events. The daily gate and the balance mutation are executed as
// one conditional UPDATE so concurrent claimers cannot double-credit.
type LedgerService struct {
	db       *gorm.DB
	settings *SettingsService
	loc      *time.Location
	notifier notify.Notifier
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(db *gorm.DB, settings *SettingsService, loc *time.Location, notifier notify.Notifier) *LedgerService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &LedgerService{db: db, settings: settings, loc: loc, notifier: notifier}
}

// RewardInput describes one balance-affecting action.
type RewardInput struct {
	TelegramID  int64
	Type        string
	Amount      decimal.Decimal
	Description string
	Metadata    string
	IPAddress   string
	Hash        string
}

// RewardResult is returned on a successful reward application.
type RewardResult struct {
	NewBalance decimal.Decimal `json:"new_balance"`
	EventID    uint            `json:"event_id"`
}

// Eligibility is the outcome of a daily-gate check.
type Eligibility struct {
	Eligible        bool       `json:"eligible"`
	NextAvailableAt *time.Time `json:"next_available_at,omitempty"`
}

// ApplyReward validates the reward, increments balance, total earned and
// the relevant daily counters, and appends a RewardEvent whose Reward
// equals the exact delta applied.
func (s *LedgerService) ApplyReward(in RewardInput) (*RewardResult, error) {
	if !models.ValidEventType(in.Type) {
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, in.Type)
	}
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: reward must not be negative", ErrInvalidInput)
	}
	if in.Type == models.EventBonus && !allowedSpinReward(in.Amount) {
		return nil, fmt.Errorf("%w: spin reward %s not in allowed set", ErrInvalidInput, in.Amount)
	}

	now := time.Now()
	res, err := s.creditUpdate(in, now)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing account from a closed gate.
		var count int64
		if err := s.db.Model(&models.Account{}).Where("telegram_id = ?", in.TelegramID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyClaimed
	}

	var account models.Account
	if err := s.db.Where("telegram_id = ?", in.TelegramID).First(&account).Error; err != nil {
		return nil, err
	}

	event := models.RewardEvent{
		TelegramID:  in.TelegramID,
		Type:        in.Type,
		Description: in.Description,
		Reward:      in.Amount,
		Metadata:    in.Metadata,
		IPAddress:   in.IPAddress,
		Hash:        in.Hash,
	}
	if err := s.db.Create(&event).Error; err != nil {
		// The balance write already landed; losing the audit entry is an
		// operator-visible inconsistency, not a user-facing failure.
		log.WithError(err).WithField("telegram_id", in.TelegramID).
			Error("reward applied but event log write failed")
		return nil, err
	}

	s.notifier.BalanceChanged(in.TelegramID, account.Balance, in.Type)

	return &RewardResult{NewBalance: account.Balance, EventID: event.ID}, nil
}

// creditUpdate builds and runs the single conditional UPDATE for the
// reward. The WHERE clause embeds the daily-gate predicate, so the store
// itself rejects the losing side of a concurrent double-claim.
func (s *LedgerService) creditUpdate(in RewardInput, now time.Time) (*gorm.DB, error) {
	midnight := StartOfDay(now, s.loc)
	cfg := s.settings.Current()

	base := map[string]interface{}{
		"balance":      gorm.Expr("balance + ?", in.Amount),
		"total_earned": gorm.Expr("total_earned + ?", in.Amount),
		"updated_at":   now,
	}

	q := s.db.Model(&models.Account{}).Where("telegram_id = ?", in.TelegramID)

	switch in.Type {
	case models.EventBonus:
		// Spin wheel: once per calendar day.
		q = q.Where("last_spin_at IS NULL OR last_spin_at < ?", midnight)
		base["last_spin_at"] = now
		base["total_spins"] = gorm.Expr("total_spins + 1")
	case models.EventAdView:
		q = q.Where("last_ad_view_at IS NULL OR last_ad_view_at < ? OR ads_viewed_today < ?", midnight, cfg.DailyAdLimit)
		base["ads_viewed_today"] = gorm.Expr(
			"CASE WHEN last_ad_view_at IS NULL OR last_ad_view_at < ? THEN 1 ELSE ads_viewed_today + 1 END", midnight)
		base["total_ads_viewed"] = gorm.Expr("total_ads_viewed + 1")
		base["last_ad_view_at"] = now
	case models.EventTaskComplete:
		q = q.Where("last_task_at IS NULL OR last_task_at < ? OR tasks_completed_today < ?", midnight, cfg.DailyTaskLimit)
		base["tasks_completed_today"] = gorm.Expr(
			"CASE WHEN last_task_at IS NULL OR last_task_at < ? THEN 1 ELSE tasks_completed_today + 1 END", midnight)
		base["last_task_at"] = now
	}

	res := q.Updates(base)
	return res, res.Error
}

// CheckDailyEligibility reports whether the account may perform the gated
// action today, and when it becomes available again. Pure read; calling
// it repeatedly without an intervening claim returns the same answer.
func (s *LedgerService) CheckDailyEligibility(telegramID int64, action string) (*Eligibility, error) {
	var account models.Account
	if err := s.db.Where("telegram_id = ?", telegramID).First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	cfg := s.settings.Current()

	var last *time.Time
	var counter, limit int

	switch action {
	case ActionSpin:
		// Once per calendar day, no counter.
		last, counter, limit = account.LastSpinAt, 1, 1
	case ActionAdView:
		last, counter, limit = account.LastAdViewAt, account.AdsViewedToday, cfg.DailyAdLimit
	case ActionTask:
		last, counter, limit = account.LastTaskAt, account.TasksCompletedToday, cfg.DailyTaskLimit
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	if EligibleToday(last, now, s.loc) {
		return &Eligibility{Eligible: true}, nil
	}
	// Same day: still eligible while under the daily limit.
	if counter < limit {
		return &Eligibility{Eligible: true}, nil
	}
	next := NextResetAt(*last, s.loc)
	return &Eligibility{Eligible: false, NextAvailableAt: &next}, nil
}

// GetEvents returns the account's reward history, newest first.
func (s *LedgerService) GetEvents(telegramID int64, limit, offset int) ([]models.RewardEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var events []models.RewardEvent
	if err := s.db.Where("telegram_id = ?", telegramID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func allowedSpinReward(amount decimal.Decimal) bool {
	for _, v := range SpinRewardAmounts {
		if amount.Equal(decimal.NewFromInt(v)) {
			return true
		}
	}
	return false
}
