package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"earnhub/internal/auth"
	"earnhub/internal/services"
)

type AccountHandler struct {
	accounts *services.AccountService
	ledger   *services.LedgerService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts *services.AccountService, ledger *services.LedgerService) *AccountHandler {
	return &AccountHandler{accounts: accounts, ledger: ledger}
}

// GetProfile returns the authenticated account with balance and counters.
func (h *AccountHandler) GetProfile(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	account, err := h.accounts.GetByTelegramID(telegramID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    account,
	})
}

// GetEvents returns the account's reward event history.
func (h *AccountHandler) GetEvents(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, err := h.ledger.GetEvents(telegramID, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
		"count":   len(events),
	})
}

// GetEligibility reports daily-gate eligibility for a rate-limited action.
func (h *AccountHandler) GetEligibility(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	eligibility, err := h.ledger.CheckDailyEligibility(telegramID, c.Param("action"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    eligibility,
	})
}
