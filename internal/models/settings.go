package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SystemSettings is the platform configuration row. Exactly one row exists
// (ID 1); it is created with defaults at startup and mutated only through
// the settings service.
type SystemSettings struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	MinWithdrawal     decimal.Decimal `gorm:"type:decimal(18,8);default:100" json:"min_withdrawal"`
	WithdrawalFee     decimal.Decimal `gorm:"type:decimal(18,8);default:50" json:"withdrawal_fee"`
	DailyAdLimit      int             `gorm:"default:10" json:"daily_ad_limit"`
	DailyTaskLimit    int             `gorm:"default:5" json:"daily_task_limit"`
	AdRewardAmount    decimal.Decimal `gorm:"type:decimal(18,8);default:10" json:"ad_reward_amount"`
	TaskRewardAmount  decimal.Decimal `gorm:"type:decimal(18,8);default:25" json:"task_reward_amount"`
	ReferralBonus     decimal.Decimal `gorm:"type:decimal(18,8);default:100" json:"referral_bonus"`
	RefundOnFailure   bool            `gorm:"default:true" json:"refund_on_failure"`
	WithdrawalsPaused bool            `gorm:"default:false" json:"withdrawals_paused"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name for SystemSettings model
func (SystemSettings) TableName() string {
	return "system_settings"
}

// PlatformStats is a nightly snapshot of platform-wide aggregates, written
// by the stats job for the admin dashboard.
type PlatformStats struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	TotalAccounts      int64           `gorm:"default:0" json:"total_accounts"`
	TotalBalance       decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"total_balance"`
	TotalEarned        decimal.Decimal `gorm:"type:decimal(24,8);default:0" json:"total_earned"`
	TotalEvents        int64           `gorm:"default:0" json:"total_events"`
	PendingWithdrawals int64           `gorm:"default:0" json:"pending_withdrawals"`
	SnapshotDate       time.Time       `gorm:"index" json:"snapshot_date"`
	CreatedAt          time.Time       `json:"created_at"`
}

// TableName specifies the table name for PlatformStats model
func (PlatformStats) TableName() string {
	return "platform_stats"
}
