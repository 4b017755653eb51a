package jobs

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"earnhub/internal/models"
)

// StatsJob snapshots platform-wide aggregates nightly at the configured
// reset timezone and flags withdrawal requests that have sat in pending
// for too long.
type StatsJob struct {
	db   *gorm.DB
	loc  *time.Location
	cron *cron.Cron
}

// NewStatsJob creates a new StatsJob
func NewStatsJob(db *gorm.DB, loc *time.Location) *StatsJob {
	return &StatsJob{
		db:   db,
		loc:  loc,
		cron: cron.New(cron.WithLocation(loc)),
	}
}

// Start registers and launches the scheduled jobs.
func (j *StatsJob) Start() error {
	// Snapshot just after the daily reset boundary.
	if _, err := j.cron.AddFunc("5 0 * * *", j.Snapshot); err != nil {
		return err
	}
	if _, err := j.cron.AddFunc("0 * * * *", j.FlagStaleWithdrawals); err != nil {
		return err
	}
	j.cron.Start()
	log.Info("Stats job scheduler started")
	return nil
}

// Stop halts the scheduler, waiting for running jobs.
func (j *StatsJob) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// Snapshot writes one PlatformStats row with current aggregates.
func (j *StatsJob) Snapshot() {
	var stats models.PlatformStats

	if err := j.db.Model(&models.Account{}).Count(&stats.TotalAccounts).Error; err != nil {
		log.WithError(err).Error("Stats snapshot: account count failed")
		return
	}

	var totalBalance, totalEarned decimal.Decimal
	row := j.db.Model(&models.Account{}).
		Select("COALESCE(SUM(balance), 0), COALESCE(SUM(total_earned), 0)").Row()
	if err := row.Scan(&totalBalance, &totalEarned); err != nil {
		log.WithError(err).Error("Stats snapshot: balance aggregation failed")
		return
	}
	stats.TotalBalance = totalBalance
	stats.TotalEarned = totalEarned

	if err := j.db.Model(&models.RewardEvent{}).Count(&stats.TotalEvents).Error; err != nil {
		log.WithError(err).Error("Stats snapshot: event count failed")
		return
	}
	if err := j.db.Model(&models.WithdrawalRequest{}).
		Where("status = ?", models.WithdrawalPending).
		Count(&stats.PendingWithdrawals).Error; err != nil {
		log.WithError(err).Error("Stats snapshot: withdrawal count failed")
		return
	}

	stats.SnapshotDate = time.Now().In(j.loc)
	if err := j.db.Create(&stats).Error; err != nil {
		log.WithError(err).Error("Stats snapshot: write failed")
		return
	}

	log.WithFields(log.Fields{
		"accounts":            stats.TotalAccounts,
		"total_balance":       stats.TotalBalance.String(),
		"pending_withdrawals": stats.PendingWithdrawals,
	}).Info("Platform stats snapshot written")
}

// FlagStaleWithdrawals logs pending withdrawals older than 24 hours so
// operators notice a stuck queue.
func (j *StatsJob) FlagStaleWithdrawals() {
	cutoff := time.Now().Add(-24 * time.Hour)

	var count int64
	if err := j.db.Model(&models.WithdrawalRequest{}).
		Where("status = ? AND created_at < ?", models.WithdrawalPending, cutoff).
		Count(&count).Error; err != nil {
		log.WithError(err).Error("Stale withdrawal check failed")
		return
	}

	if count > 0 {
		log.WithField("count", count).Warn("Withdrawals pending for more than 24h")
	}
}
