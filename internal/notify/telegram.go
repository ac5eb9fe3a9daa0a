package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yieldapp/internal/model"
)

// Notifier pushes operator-facing events (new withdrawals, fee payment
// claims, PIN reset requests) to a Telegram chat. A nil Notifier is valid and
// drops everything, so callers never have to branch on configuration.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func New(cfg model.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" || cfg.AdminChatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: cfg.AdminChatID}, nil
}

func (n *Notifier) Send(format string, args ...interface{}) {
	if n == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf(format, args...))
	if _, err := n.bot.Send(msg); err != nil {
		log.Printf("telegram notification failed: %v", err)
	}
}
