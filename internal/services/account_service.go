package services

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"earnhub/internal/models"
	"earnhub/internal/utils"
)

// AccountService handles account bootstrap and lookups. Accounts are
// created on first contact with a fresh unique referral code; referral
// attribution happens here, exactly once.
type AccountService struct {
	db        *gorm.DB
	referrals *ReferralService
}

// NewAccountService creates a new AccountService
func NewAccountService(db *gorm.DB, referrals *ReferralService) *AccountService {
	return &AccountService{db: db, referrals: referrals}
}

// GetOrCreate returns the account for telegramID, creating it if this is
// the first contact. referralCode is only consulted on creation; the
// bool result reports whether a new account was created.
func (s *AccountService) GetOrCreate(telegramID int64, referralCode string) (*models.Account, bool, error) {
	var account models.Account
	err := s.db.Where("telegram_id = ?", telegramID).First(&account).Error
	if err == nil {
		return &account, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	code, err := s.uniqueReferralCode()
	if err != nil {
		return nil, false, err
	}

	account = models.Account{
		TelegramID:   telegramID,
		ReferralCode: code,
	}
	if err := s.db.Create(&account).Error; err != nil {
		// A concurrent first contact may have won the unique index race;
		// the account it created is the one we want. No attribution in
		// that case, the winner already handled it.
		var existing models.Account
		if lookupErr := s.db.Where("telegram_id = ?", telegramID).First(&existing).Error; lookupErr == nil {
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create account: %w", err)
	}

	// Attribution happens exactly once, after the creation has won.
	if referred := s.referrals.Attribute(telegramID, referralCode); referred != "" {
		account.ReferredBy = &referred
		if err := s.db.Model(&account).Update("referred_by", referred).Error; err != nil {
			log.WithError(err).Warn("Failed to record referred_by")
		}
	}

	log.WithField("telegram_id", telegramID).Info("Account created")
	return &account, true, nil
}

// GetByTelegramID retrieves an account by Telegram id.
func (s *AccountService) GetByTelegramID(telegramID int64) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("telegram_id = ?", telegramID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// List returns accounts for the admin panel, newest first.
func (s *AccountService) List(limit, offset int) ([]models.Account, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var total int64
	if err := s.db.Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var accounts []models.Account
	if err := s.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// Delete removes an account. This is the only hard delete in the system
// and is reserved for explicit admin action; the event log is kept for
// audit.
func (s *AccountService) Delete(telegramID int64) error {
	res := s.db.Where("telegram_id = ?", telegramID).Delete(&models.Account{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	log.WithField("telegram_id", telegramID).Warn("Account deleted by admin")
	return nil
}

// uniqueReferralCode generates a code and retries on the unlikely
// collision with an existing account.
func (s *AccountService) uniqueReferralCode() (string, error) {
	for i := 0; i < 5; i++ {
		code, err := utils.GenerateReferralCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := s.db.Model(&models.Account{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: could not generate unique referral code", ErrConflict)
}
