package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"earnhub/internal/auth"
	"earnhub/internal/config"
	"earnhub/internal/services"
)

// AuthHandler issues JWTs and bootstraps accounts on first login. The
// Telegram identity is assumed to be verified upstream (mini-app initData
// check at the edge); this layer only needs the resulting id.
type AuthHandler struct {
	accounts *services.AccountService
	cfg      *config.Config
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts *services.AccountService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{accounts: accounts, cfg: cfg}
}

// Login bootstraps the account on first contact and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		TelegramID   int64  `json:"telegram_id" binding:"required"`
		ReferralCode string `json:"referral_code"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, created, err := h.accounts.GetOrCreate(req.TelegramID, req.ReferralCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	token, err := auth.GenerateToken(account.TelegramID, h.cfg.IsAdmin(account.TelegramID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"created": created,
		"data":    account,
	})
}
