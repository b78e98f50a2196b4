package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Telegram allows roughly one message per second into a single chat.
const chatMessageInterval = time.Second

// Notifier sends Markdown alerts to one chat.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
}

// sender is the part of tgbotapi.BotAPI the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type client struct {
	bot     sender
	chatID  int64
	limiter *rate.Limiter
}

// NewClient authenticates the bot token and returns a chat-bound Notifier.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return newClient(bot, chatID), nil
}

func newClient(bot sender, chatID int64) *client {
	return &client{
		bot:     bot,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(chatMessageInterval), 1),
	}
}

// SendMessage waits for the per-chat rate limit, then sends text with link
// previews off. Text over MaxMessageLength is truncated.
func (c *client) SendMessage(ctx context.Context, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit: %w", err)
	}

	msg := tgbotapi.NewMessage(c.chatID, Truncate(text, MaxMessageLength))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
