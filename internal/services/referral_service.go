package services

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"earnhub/internal/models"
	"earnhub/internal/notify"
)

// ReferralService handles one-time referral attribution at account
// creation. Unknown codes are ignored, never an error.
type ReferralService struct {
	db       *gorm.DB
	settings *SettingsService
	notifier notify.Notifier
}

// NewReferralService creates a new ReferralService
func NewReferralService(db *gorm.DB, settings *SettingsService, notifier notify.Notifier) *ReferralService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &ReferralService{db: db, settings: settings, notifier: notifier}
}

// Attribute resolves code against existing referral codes and, if it
// matches another account, credits that referrer with the configured
// bonus. Returns the matched referrer code for storage on the new
// account, or "" when the code did not resolve.
//
// Called exactly once, at account-creation time. Never retroactive.
func (s *ReferralService) Attribute(newTelegramID int64, code string) string {
	if code == "" {
		return ""
	}

	var referrer models.Account
	if err := s.db.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.WithError(err).Warn("Referral lookup failed")
		}
		return ""
	}

	// Self-referral gets ignored the same way as an unknown code.
	if referrer.TelegramID == newTelegramID {
		return ""
	}

	bonus := s.settings.Current().ReferralBonus
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("telegram_id = ?", referrer.TelegramID).
			Updates(map[string]interface{}{
				"referral_count":    gorm.Expr("referral_count + 1"),
				"referral_earnings": gorm.Expr("referral_earnings + ?", bonus),
				"balance":           gorm.Expr("balance + ?", bonus),
				"total_earned":      gorm.Expr("total_earned + ?", bonus),
				"updated_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}

		event := models.RewardEvent{
			TelegramID:  referrer.TelegramID,
			Type:        models.EventReferral,
			Description: fmt.Sprintf("referral bonus for inviting %d", newTelegramID),
			Reward:      bonus,
			Metadata:    fmt.Sprintf(`{"referred_telegram_id":%d}`, newTelegramID),
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		log.WithError(err).WithField("referrer", referrer.TelegramID).
			Error("Failed to credit referral bonus")
		return ""
	}

	log.WithFields(log.Fields{
		"referrer":    referrer.TelegramID,
		"new_account": newTelegramID,
		"bonus":       bonus.String(),
	}).Info("Referral attributed")

	var updated models.Account
	if err := s.db.Where("telegram_id = ?", referrer.TelegramID).First(&updated).Error; err == nil {
		s.notifier.BalanceChanged(referrer.TelegramID, updated.Balance, models.EventReferral)
	}

	return code
}
