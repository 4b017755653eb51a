package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"earnhub/internal/models"
	"earnhub/internal/services"
)

type AdminHandler struct {
	db          *gorm.DB
	accounts    *services.AccountService
	withdrawals *services.WithdrawalService
	settings    *services.SettingsService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(db *gorm.DB, accounts *services.AccountService, withdrawals *services.WithdrawalService, settings *services.SettingsService) *AdminHandler {
	return &AdminHandler{db: db, accounts: accounts, withdrawals: withdrawals, settings: settings}
}

// GetWithdrawals returns the withdrawal queue, optionally filtered by
// status, oldest first.
func (h *AdminHandler) GetWithdrawals(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	withdrawals, err := h.withdrawals.ListByStatus(c.Query("status"), limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    withdrawals,
		"count":   len(withdrawals),
	})
}

// TransitionWithdrawal drives the withdrawal state machine.
func (h *AdminHandler) TransitionWithdrawal(c *gin.Context) {
	var req struct {
		Status        string `json:"status" binding:"required"`
		TransactionID string `json:"transaction_id"`
		Reason        string `json:"reason"`
		AdminNotes    string `json:"admin_notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	withdrawal, err := h.withdrawals.Transition(c.Param("id"), req.Status, services.TransitionInput{
		TransactionID: req.TransactionID,
		Reason:        req.Reason,
		AdminNotes:    req.AdminNotes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    withdrawal,
	})
}

// GetAccounts returns a paginated account listing.
func (h *AdminHandler) GetAccounts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	accounts, total, err := h.accounts.List(limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    accounts,
		"total":   total,
	})
}

// DeleteAccount removes an account. The event log is retained for audit.
func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegramId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid telegram id"})
		return
	}

	if err := h.accounts.Delete(telegramID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Account deleted",
	})
}

// GetStats returns the latest platform snapshot.
func (h *AdminHandler) GetStats(c *gin.Context) {
	var stats models.PlatformStats
	err := h.db.Order("snapshot_date DESC").First(&stats).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": nil})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetSettings returns the active settings snapshot.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings := h.settings.Current()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}

// UpdateSettings applies changes to the singleton settings row.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req services.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.settings.Update(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}
