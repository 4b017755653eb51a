package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"earnhub/internal/models"
	"earnhub/internal/notify"
)

// Address formats per supported network. Base58 covers the Solana/Tron
// style alphabets; EVM networks use 0x-prefixed hex.
const (
	addrBase58 = "base58"
	addrEVM    = "evm"
)

var networkAddressFormats = map[string]string{
	"sol":     addrBase58,
	"tron":    addrBase58,
	"ton":     addrBase58,
	"eth":     addrEVM,
	"bsc":     addrEVM,
	"polygon": addrEVM,
}

var evmAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// WithdrawalService owns the withdrawal request lifecycle. The balance is
// deducted eagerly at submit time; status transitions use an optimistic
// guard so two operators cannot double-process the same request.
type WithdrawalService struct {
	db       *gorm.DB
	settings *SettingsService
	notifier notify.Notifier
}

// NewWithdrawalService creates a new WithdrawalService
func NewWithdrawalService(db *gorm.DB, settings *SettingsService, notifier notify.Notifier) *WithdrawalService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &WithdrawalService{db: db, settings: settings, notifier: notifier}
}

// SubmitResult is returned on a successful withdrawal submission.
type SubmitResult struct {
	Withdrawal *models.WithdrawalRequest `json:"withdrawal"`
	NewBalance decimal.Decimal           `json:"new_balance"`
}

// Submit validates the request, deducts amount plus the configured fee
// from the account balance and creates the request in pending state.
func (s *WithdrawalService) Submit(telegramID int64, amount decimal.Decimal, currency, network, address, method string) (*SubmitResult, error) {
	cfg := s.settings.Current()

	if cfg.WithdrawalsPaused {
		return nil, ErrWithdrawalsPaused
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if amount.LessThan(cfg.MinWithdrawal) {
		return nil, fmt.Errorf("%w: amount below minimum withdrawal %s", ErrInvalidInput, cfg.MinWithdrawal)
	}
	if err := validateAddress(network, address); err != nil {
		return nil, err
	}

	total := amount.Add(cfg.WithdrawalFee)
	withdrawal := models.WithdrawalRequest{
		PublicID:   uuid.NewString(),
		TelegramID: telegramID,
		Amount:     amount,
		Currency:   strings.ToUpper(currency),
		Network:    strings.ToLower(network),
		Address:    address,
		Method:     method,
		NetworkFee: cfg.WithdrawalFee,
		Status:     models.WithdrawalPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Conditional deduction: the balance guard lives in the WHERE
		// clause so a concurrent submit cannot drive the balance negative.
		res := tx.Model(&models.Account{}).
			Where("telegram_id = ? AND balance >= ?", telegramID, total).
			Updates(map[string]interface{}{
				"balance":    gorm.Expr("balance - ?", total),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Account{}).Where("telegram_id = ?", telegramID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrInsufficientBalance
		}

		if err := tx.Create(&withdrawal).Error; err != nil {
			return fmt.Errorf("failed to create withdrawal request: %w", err)
		}

		event := models.RewardEvent{
			TelegramID:  telegramID,
			Type:        models.EventWithdrawal,
			Description: fmt.Sprintf("withdrawal %s submitted", withdrawal.PublicID),
			Reward:      total.Neg(),
			Metadata:    fmt.Sprintf(`{"withdrawal_id":%q,"status":%q}`, withdrawal.PublicID, withdrawal.Status),
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	var account models.Account
	if err := s.db.Where("telegram_id = ?", telegramID).First(&account).Error; err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"telegram_id": telegramID,
		"withdrawal":  withdrawal.PublicID,
		"amount":      amount.String(),
		"fee":         cfg.WithdrawalFee.String(),
	}).Info("Withdrawal submitted")

	s.notifier.WithdrawalStatus(telegramID, withdrawal.PublicID, withdrawal.Status)

	return &SubmitResult{Withdrawal: &withdrawal, NewBalance: account.Balance}, nil
}

// TransitionInput carries the optional fields of a status transition.
type TransitionInput struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Reason        string `json:"reason,omitempty"`
	AdminNotes    string `json:"admin_notes,omitempty"`
}

// allowedTransitions encodes the lifecycle: pending may move to any other
// state (completed directly tolerates operators skipping processing);
// processing may complete or fail; terminal states admit nothing.
var allowedTransitions = map[string][]string{
	models.WithdrawalPending:    {models.WithdrawalProcessing, models.WithdrawalCompleted, models.WithdrawalFailed, models.WithdrawalCancelled},
	models.WithdrawalProcessing: {models.WithdrawalCompleted, models.WithdrawalFailed},
}

// Transition moves a withdrawal to newStatus. The UPDATE is guarded on the
// previously observed status; a concurrent operator racing the same
// request gets ErrConflict. Failed and cancelled transitions credit the
// deducted total back when refunds are enabled.
func (s *WithdrawalService) Transition(publicID, newStatus string, in TransitionInput) (*models.WithdrawalRequest, error) {
	switch newStatus {
	case models.WithdrawalProcessing, models.WithdrawalCompleted, models.WithdrawalFailed, models.WithdrawalCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}

	var withdrawal models.WithdrawalRequest
	if err := s.db.Where("public_id = ?", publicID).First(&withdrawal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !transitionAllowed(withdrawal.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, withdrawal.Status, newStatus)
	}

	cfg := s.settings.Current()
	now := time.Now()
	refund := decimal.Zero
	if (newStatus == models.WithdrawalFailed || newStatus == models.WithdrawalCancelled) && cfg.RefundOnFailure {
		refund = withdrawal.Amount.Add(withdrawal.NetworkFee)
	}

	updates := map[string]interface{}{
		"status":       newStatus,
		"processed_at": now,
		"updated_at":   now,
	}
	if in.TransactionID != "" {
		updates["transaction_id"] = in.TransactionID
	}
	if in.Reason != "" {
		updates["failure_reason"] = in.Reason
	}
	if in.AdminNotes != "" {
		updates["admin_notes"] = in.AdminNotes
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WithdrawalRequest{}).
			Where("id = ? AND status = ?", withdrawal.ID, withdrawal.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another operator got there first.
			return ErrConflict
		}

		if refund.IsPositive() {
			if err := tx.Model(&models.Account{}).
				Where("telegram_id = ?", withdrawal.TelegramID).
				Update("balance", gorm.Expr("balance + ?", refund)).Error; err != nil {
				return err
			}
		}

		event := models.RewardEvent{
			TelegramID:  withdrawal.TelegramID,
			Type:        models.EventWithdrawal,
			Description: fmt.Sprintf("withdrawal %s %s", withdrawal.PublicID, newStatus),
			Reward:      refund,
			Metadata:    fmt.Sprintf(`{"withdrawal_id":%q,"status":%q}`, withdrawal.PublicID, newStatus),
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&withdrawal, withdrawal.ID).Error; err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"withdrawal": withdrawal.PublicID,
		"status":     newStatus,
		"refund":     refund.String(),
	}).Info("Withdrawal transitioned")

	s.notifier.WithdrawalStatus(withdrawal.TelegramID, withdrawal.PublicID, newStatus)

	return &withdrawal, nil
}

// GetByPublicID returns a single withdrawal request.
func (s *WithdrawalService) GetByPublicID(publicID string) (*models.WithdrawalRequest, error) {
	var withdrawal models.WithdrawalRequest
	if err := s.db.Where("public_id = ?", publicID).First(&withdrawal).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

// ListByAccount returns the account's withdrawal history, newest first.
func (s *WithdrawalService) ListByAccount(telegramID int64) ([]models.WithdrawalRequest, error) {
	var withdrawals []models.WithdrawalRequest
	if err := s.db.Where("telegram_id = ?", telegramID).
		Order("created_at DESC").Find(&withdrawals).Error; err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// ListByStatus returns withdrawals in the given status for the admin
// queue; an empty status returns everything.
func (s *WithdrawalService) ListByStatus(status string, limit, offset int) ([]models.WithdrawalRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.Model(&models.WithdrawalRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var withdrawals []models.WithdrawalRequest
	if err := q.Order("created_at ASC").Limit(limit).Offset(offset).Find(&withdrawals).Error; err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func transitionAllowed(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func validateAddress(network, address string) error {
	format, ok := networkAddressFormats[strings.ToLower(network)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidNetwork, network)
	}
	switch format {
	case addrEVM:
		if !evmAddressRe.MatchString(address) {
			return fmt.Errorf("%w: malformed EVM address", ErrInvalidAddress)
		}
	case addrBase58:
		decoded, err := base58.Decode(address)
		if err != nil || len(decoded) < 16 {
			return fmt.Errorf("%w: malformed base58 address", ErrInvalidAddress)
		}
	}
	return nil
}
