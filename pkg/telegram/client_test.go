package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func TestClient_SendMessage(t *testing.T) {
	bot := &fakeBot{}
	c := newClient(bot, 42)

	require.NoError(t, c.SendMessage(context.Background(), strings.Repeat("a", MaxMessageLength+50)))

	require.Len(t, bot.sent, 1)
	msg := bot.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	assert.True(t, msg.DisableWebPagePreview)
	assert.LessOrEqual(t, len([]rune(msg.Text)), MaxMessageLength)
}

func TestClient_SendMessageErrors(t *testing.T) {
	c := newClient(&fakeBot{err: errors.New("chat not found")}, 1)
	err := c.SendMessage(context.Background(), "hi")
	assert.EqualError(t, err, "telegram send: chat not found")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bot := &fakeBot{}
	err = newClient(bot, 1).SendMessage(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, bot.sent)
}
