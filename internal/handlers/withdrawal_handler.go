package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"earnhub/internal/auth"
	"earnhub/internal/services"
)

type WithdrawalHandler struct {
	withdrawals *services.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler
func NewWithdrawalHandler(withdrawals *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

// Submit creates a pending withdrawal request, deducting the amount plus
// fee from the balance eagerly.
func (h *WithdrawalHandler) Submit(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount   decimal.Decimal `json:"amount" binding:"required"`
		Currency string          `json:"currency" binding:"required"`
		Network  string          `json:"network" binding:"required"`
		Address  string          `json:"address" binding:"required"`
		Method   string          `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.withdrawals.Submit(telegramID, req.Amount, req.Currency, req.Network, req.Address, req.Method)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result,
	})
}

// List returns the authenticated account's withdrawal history.
func (h *WithdrawalHandler) List(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	withdrawals, err := h.withdrawals.ListByAccount(telegramID)
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

// Get returns one of the authenticated account's withdrawal requests.
func (h *WithdrawalHandler) Get(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	withdrawal, err := h.withdrawals.GetByPublicID(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if withdrawal.TelegramID != telegramID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "not_found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    withdrawal,
	})
}
