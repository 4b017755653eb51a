package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Notifier pushes user-facing events out of the ledger. Delivery is
// fire-and-forget: failures are logged, never propagated to the caller.
type Notifier interface {
	BalanceChanged(telegramID int64, newBalance decimal.Decimal, reason string)
	WithdrawalStatus(telegramID int64, publicID, status string)
}

// Noop discards all notifications. Used in tests and when no bot token
// is configured.
type Noop struct{}

func (Noop) BalanceChanged(int64, decimal.Decimal, string) {}
func (Noop) WithdrawalStatus(int64, string, string)        {}

// TelegramNotifier delivers notifications through the Telegram Bot API.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier creates a notifier for the given bot token. Returns
// Noop when the token is empty so callers never need a nil check.
func NewTelegramNotifier(token string) Notifier {
	if token == "" {
		log.Info("No Telegram bot token configured, notifications disabled")
		return Noop{}
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize Telegram bot, notifications disabled")
		return Noop{}
	}
	log.Infof("Telegram notifier authorized as @%s", bot.Self.UserName)
	return &TelegramNotifier{bot: bot}
}

func (n *TelegramNotifier) BalanceChanged(telegramID int64, newBalance decimal.Decimal, reason string) {
	text := fmt.Sprintf("Your balance changed (%s). New balance: %s", reason, newBalance.String())
	n.send(telegramID, text)
}

func (n *TelegramNotifier) WithdrawalStatus(telegramID int64, publicID, status string) {
	text := fmt.Sprintf("Withdrawal %s is now %s", publicID, status)
	n.send(telegramID, text)
}

func (n *TelegramNotifier) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Failed to send Telegram notification")
	}
}
