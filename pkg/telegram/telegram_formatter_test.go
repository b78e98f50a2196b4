package telegram

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFormatAlert(t *testing.T) {
	msg := FormatAlert(Alert{
		Title:      "High-quality post from @crypto_dev",
		Reason:     "Watchlist asset BTC mentioned",
		Text:       "BTC *breakout* because 5% inflows",
		Importance: "high",
		Sentiment:  "bullish",
		Assets:     []string{"BTC", "ETH"},
		Followers:  1234567,
		PostedAt:   time.Now().Add(-3 * time.Minute),
	})

	assert.True(t, strings.HasPrefix(msg, "🚨 *High-quality post from @crypto\\_dev*"))
	assert.Contains(t, msg, "*Reason:* Watchlist asset BTC mentioned")
	assert.Contains(t, msg, "🟢 *Sentiment:* bullish")
	assert.Contains(t, msg, "`BTC, ETH`")
	assert.Contains(t, msg, "1,234,567")
	assert.Contains(t, msg, "3 minutes ago")
	assert.Contains(t, msg, "BTC \\*breakout\\* because 5% inflows")
}

func TestFormatAlert_OmitsEmptySections(t *testing.T) {
	msg := FormatAlert(Alert{Title: "t", Importance: "low"})

	assert.Equal(t, "ℹ️ *t*\n\n", msg)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))

	long := strings.Repeat("é", 10)
	got := Truncate(long, 9)

	assert.LessOrEqual(t, len(got), 9)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
}
