package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"earnhub/internal/auth"
	"earnhub/internal/models"
	"earnhub/internal/services"
)

type RewardHandler struct {
	ledger   *services.LedgerService
	settings *services.SettingsService
}

// NewRewardHandler creates a new RewardHandler
func NewRewardHandler(ledger *services.LedgerService, settings *services.SettingsService) *RewardHandler {
	return &RewardHandler{ledger: ledger, settings: settings}
}

// ClaimAdReward credits the configured ad-view reward, gated by the
// daily ad limit.
func (h *RewardHandler) ClaimAdReward(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Metadata string `json:"metadata"`
	}
	_ = c.ShouldBindJSON(&req)

	result, err := h.ledger.ApplyReward(services.RewardInput{
		TelegramID:  telegramID,
		Type:        models.EventAdView,
		Amount:      h.settings.Current().AdRewardAmount,
		Description: "ad view reward",
		Metadata:    req.Metadata,
		IPAddress:   c.ClientIP(),
		Hash:        auth.GetRequestHash(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ClaimSpinReward records a spin-wheel claim. The payout must be one of
// the pre-declared amounts and is allowed once per calendar day.
func (h *RewardHandler) ClaimSpinReward(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Amount   int64  `json:"amount" binding:"required"`
		Metadata string `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledger.ApplyReward(services.RewardInput{
		TelegramID:  telegramID,
		Type:        models.EventBonus,
		Amount:      decimal.NewFromInt(req.Amount),
		Description: "spin wheel reward",
		Metadata:    req.Metadata,
		IPAddress:   c.ClientIP(),
		Hash:        auth.GetRequestHash(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ClaimTaskReward credits the configured task-completion reward, gated
// by the daily task limit.
func (h *RewardHandler) ClaimTaskReward(c *gin.Context) {
	telegramID, exists := auth.GetTelegramID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		TaskID   string `json:"task_id"`
		Metadata string `json:"metadata"`
	}
	_ = c.ShouldBindJSON(&req)

	result, err := h.ledger.ApplyReward(services.RewardInput{
		TelegramID:  telegramID,
		Type:        models.EventTaskComplete,
		Amount:      h.settings.Current().TaskRewardAmount,
		Description: "task completion reward",
		Metadata:    req.Metadata,
		IPAddress:   c.ClientIP(),
		Hash:        auth.GetRequestHash(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}
