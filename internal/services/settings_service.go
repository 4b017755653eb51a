package services

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"earnhub/internal/models"
)

// settingsRowID is the primary key of the single settings row. Exactly one
// row exists; Ensure creates it with defaults on first startup.
const settingsRowID = 1

// SettingsService owns the singleton SystemSettings row and serves an
// in-memory snapshot to the other services. The snapshot is replaced only
// through Update, never re-read from the store on the request path.
type SettingsService struct {
	db      *gorm.DB
	mu      sync.RWMutex
	current models.SystemSettings
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(db *gorm.DB) *SettingsService {
	return &SettingsService{db: db}
}

// Ensure loads the settings row, creating it with defaults if missing.
// Must be called once at startup before Current is used.
func (s *SettingsService) Ensure() error {
	var settings models.SystemSettings
	err := s.db.First(&settings, settingsRowID).Error
	if err == gorm.ErrRecordNotFound {
		settings = defaultSettings()
		if err := s.db.Create(&settings).Error; err != nil {
			return err
		}
		log.Info("Created default system settings")
	} else if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
	return nil
}

// Current returns the active settings snapshot.
func (s *SettingsService) Current() models.SystemSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SettingsUpdate carries the mutable settings fields. Nil pointers leave
// the corresponding field untouched.
type SettingsUpdate struct {
	MinWithdrawal     *decimal.Decimal `json:"min_withdrawal,omitempty"`
	WithdrawalFee     *decimal.Decimal `json:"withdrawal_fee,omitempty"`
	DailyAdLimit      *int             `json:"daily_ad_limit,omitempty"`
	DailyTaskLimit    *int             `json:"daily_task_limit,omitempty"`
	AdRewardAmount    *decimal.Decimal `json:"ad_reward_amount,omitempty"`
	TaskRewardAmount  *decimal.Decimal `json:"task_reward_amount,omitempty"`
	ReferralBonus     *decimal.Decimal `json:"referral_bonus,omitempty"`
	RefundOnFailure   *bool            `json:"refund_on_failure,omitempty"`
	WithdrawalsPaused *bool            `json:"withdrawals_paused,omitempty"`
}

// Update applies the changes to the settings row and refreshes the
// in-memory snapshot.
func (s *SettingsService) Update(upd SettingsUpdate) (*models.SystemSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.current
	if upd.MinWithdrawal != nil {
		if upd.MinWithdrawal.IsNegative() {
			return nil, ErrInvalidInput
		}
		settings.MinWithdrawal = *upd.MinWithdrawal
	}
	if upd.WithdrawalFee != nil {
		if upd.WithdrawalFee.IsNegative() {
			return nil, ErrInvalidInput
		}
		settings.WithdrawalFee = *upd.WithdrawalFee
	}
	if upd.DailyAdLimit != nil {
		if *upd.DailyAdLimit < 0 {
			return nil, ErrInvalidInput
		}
		settings.DailyAdLimit = *upd.DailyAdLimit
	}
	if upd.DailyTaskLimit != nil {
		if *upd.DailyTaskLimit < 0 {
			return nil, ErrInvalidInput
		}
		settings.DailyTaskLimit = *upd.DailyTaskLimit
	}
	if upd.AdRewardAmount != nil {
		settings.AdRewardAmount = *upd.AdRewardAmount
	}
	if upd.TaskRewardAmount != nil {
		settings.TaskRewardAmount = *upd.TaskRewardAmount
	}
	if upd.ReferralBonus != nil {
		settings.ReferralBonus = *upd.ReferralBonus
	}
	if upd.RefundOnFailure != nil {
		settings.RefundOnFailure = *upd.RefundOnFailure
	}
	if upd.WithdrawalsPaused != nil {
		settings.WithdrawalsPaused = *upd.WithdrawalsPaused
	}
	settings.UpdatedAt = time.Now()

	if err := s.db.Save(&settings).Error; err != nil {
		return nil, err
	}

	s.current = settings
	log.Info("System settings updated")
	return &settings, nil
}

func defaultSettings() models.SystemSettings {
	return models.SystemSettings{
		ID:               settingsRowID,
		MinWithdrawal:    decimal.NewFromInt(100),
		WithdrawalFee:    decimal.NewFromInt(50),
		DailyAdLimit:     10,
		DailyTaskLimit:   5,
		AdRewardAmount:   decimal.NewFromInt(10),
		TaskRewardAmount: decimal.NewFromInt(25),
		ReferralBonus:    decimal.NewFromInt(100),
		RefundOnFailure:  true,
	}
}
