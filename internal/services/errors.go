package services

import "errors"

// Expected business outcomes. Handlers map these to 4xx responses; anything
// else is treated as an upstream failure and surfaced as a generic 500.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrAlreadyClaimed      = errors.New("already claimed today")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidAddress      = errors.New("invalid destination address")
	ErrInvalidNetwork      = errors.New("unsupported network")
	ErrConflict            = errors.New("conflicting concurrent update")
	ErrWithdrawalsPaused   = errors.New("withdrawals are paused")
)
