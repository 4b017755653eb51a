package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reward event types. A withdrawal entry carries the (negative) deduction
// applied to the account; a refund entry carries the positive credit back.
const (
	EventAdView       = "ad_view"
	EventTaskComplete = "task_complete"
	EventReferral     = "referral"
	EventBonus        = "bonus"
	EventWithdrawal   = "withdrawal"
	EventLogin        = "login"
	EventSwap         = "swap"
	EventOther        = "other"
)

// RewardEvent is an append-only ledger entry for every balance-affecting
// action. Entries are never updated or deleted; the account balance must
// equal the sum of its event rewards at all times.
type RewardEvent struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	TelegramID  int64           `gorm:"not null;index" json:"telegram_id"`
	Type        string          `gorm:"size:30;not null;index" json:"type"`
	Description string          `gorm:"type:text" json:"description"`
	Reward      decimal.Decimal `gorm:"type:decimal(18,8);not null" json:"reward"`
	Metadata    string          `gorm:"type:text" json:"metadata,omitempty"`
	IPAddress   string          `gorm:"size:45" json:"ip_address,omitempty"`
	Hash        string          `gorm:"size:64;index" json:"hash,omitempty"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for RewardEvent model
func (RewardEvent) TableName() string {
	return "reward_events"
}

// ValidEventType reports whether t is one of the enumerated event types.
func ValidEventType(t string) bool {
	switch t {
	case EventAdView, EventTaskComplete, EventReferral, EventBonus,
		EventWithdrawal, EventLogin, EventSwap, EventOther:
		return true
	}
	return false
}
