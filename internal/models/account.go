package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a user's balance and activity counters, keyed by
// their Telegram user id.
type Account struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	TelegramID          int64           `gorm:"uniqueIndex;not null" json:"telegram_id"`
	Balance             decimal.Decimal `gorm:"type:decimal(18,8);default:0" json:"balance"`
	TotalEarned         decimal.Decimal `gorm:"type:decimal(18,8);default:0" json:"total_earned"`
	TasksCompletedToday int             `gorm:"default:0" json:"tasks_completed_today"`
	AdsViewedToday      int             `gorm:"default:0" json:"ads_viewed_today"`
	LastTaskAt          *time.Time      `json:"last_task_at,omitempty"`
	LastAdViewAt        *time.Time      `json:"last_ad_view_at,omitempty"`
	LastSpinAt          *time.Time      `json:"last_spin_at,omitempty"`
	TotalSpins          int             `gorm:"default:0" json:"total_spins"`
	TotalAdsViewed      int             `gorm:"default:0" json:"total_ads_viewed"`
	ReferralCount       int             `gorm:"default:0" json:"referral_count"`
	ReferralEarnings    decimal.Decimal `gorm:"type:decimal(18,8);default:0" json:"referral_earnings"`
	ReferralCode        string          `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	ReferredBy          *string         `gorm:"size:20;index" json:"referred_by,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Account model
func (Account) TableName() string {
	return "accounts"
}
