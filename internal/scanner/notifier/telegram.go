package notifier

import (
	"context"
	"strings"
	"time"

	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/pkg/telegram"
)

type telegramDispatcher struct {
	client telegram.Notifier
}

// NewTelegramDispatcher sends notifications through a Telegram bot.
func NewTelegramDispatcher(client telegram.Notifier) Channel {
	return &telegramDispatcher{client: client}
}

func (d *telegramDispatcher) Name() string { return "telegram" }

func (d *telegramDispatcher) Dispatch(ctx context.Context, n dto.Notification) error {
	return d.client.SendMessage(ctx, telegram.FormatAlert(toAlert(n)))
}

// toAlert splits the "reason\nPost: text" message back into its parts.
func toAlert(n dto.Notification) telegram.Alert {
	alert := telegram.Alert{
		Title:      n.Title,
		Importance: n.Importance,
		Reason:     n.Message,
	}
	if reason, text, ok := strings.Cut(n.Message, "\nPost: "); ok {
		alert.Reason = reason
		alert.Text = text
	}

	if v, ok := n.Data[DataSentiment].(string); ok {
		alert.Sentiment = v
	}
	switch v := n.Data[DataAssets].(type) {
	case []string:
		alert.Assets = v
	case []interface{}:
		for _, a := range v {
			if s, ok := a.(string); ok {
				alert.Assets = append(alert.Assets, s)
			}
		}
	}
	if v, ok := n.Data[DataFollowers].(int64); ok {
		alert.Followers = v
	}
	if v, ok := n.Data[DataPostedAt].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			alert.PostedAt = t
		}
	}
	return alert
}
