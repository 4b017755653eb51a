package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Withdrawal statuses. completed, failed and cancelled are terminal.
const (
	WithdrawalPending    = "pending"
	WithdrawalProcessing = "processing"
	WithdrawalCompleted  = "completed"
	WithdrawalFailed     = "failed"
	WithdrawalCancelled  = "cancelled"
)

// WithdrawalRequest represents a requested payout. Its lifecycle is
// independent of the Account: the balance is deducted eagerly at submit
// time, not at completion.
type WithdrawalRequest struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PublicID      string          `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	TelegramID    int64           `gorm:"not null;index" json:"telegram_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,8);not null" json:"amount"`
	Currency      string          `gorm:"size:10;not null" json:"currency"`
	Network       string          `gorm:"size:20;not null" json:"network"`
	Address       string          `gorm:"size:128;not null" json:"address"`
	Method        string          `gorm:"size:30" json:"method"`
	NetworkFee    decimal.Decimal `gorm:"type:decimal(18,8);default:0" json:"network_fee"`
	Status        string          `gorm:"size:20;default:pending;index" json:"status"`
	TransactionID string          `gorm:"size:128" json:"transaction_id,omitempty"`
	FailureReason string          `gorm:"type:text" json:"failure_reason,omitempty"`
	AdminNotes    string          `gorm:"type:text" json:"admin_notes,omitempty"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for WithdrawalRequest model
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// Terminal reports whether the status admits no further transitions.
func (w *WithdrawalRequest) Terminal() bool {
	switch w.Status {
	case WithdrawalCompleted, WithdrawalFailed, WithdrawalCancelled:
		return true
	}
	return false
}
