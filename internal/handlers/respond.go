package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"earnhub/internal/services"
)

// respondServiceError maps expected business outcomes to 4xx responses
// with a stable code; anything else is an upstream failure and surfaces
// as a generic 500 without internal detail.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": "not_found"})
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_input"})
	case errors.Is(err, services.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_address"})
	case errors.Is(err, services.ErrInvalidNetwork):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_network"})
	case errors.Is(err, services.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance", "code": "insufficient_balance"})
	case errors.Is(err, services.ErrAlreadyClaimed):
		// Expected outcome, not an error worth logging.
		c.JSON(http.StatusConflict, gin.H{"error": "Already claimed today", "code": "already_claimed"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "invalid_transition"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Request was modified concurrently", "code": "conflict"})
	case errors.Is(err, services.ErrWithdrawalsPaused):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Withdrawals are temporarily paused", "code": "withdrawals_paused"})
	default:
		log.WithError(err).Error("Unexpected service error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
