package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// MaxMessageLength is the Telegram text limit, minus a small margin.
const MaxMessageLength = 4090

// Alert is the content of one post alert.
type Alert struct {
	Title      string
	Reason     string
	Text       string
	Importance string
	Sentiment  string
	Assets     []string
	Followers  int64
	PostedAt   time.Time
}

var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

// EscapeMarkdown escapes the characters legacy Markdown mode treats as markup.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// FormatAlert renders a post alert as a Markdown message.
func FormatAlert(a Alert) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s *%s*\n\n", importanceIcon(a.Importance), EscapeMarkdown(a.Title)))
	if a.Reason != "" {
		b.WriteString(fmt.Sprintf("🎯 *Reason:* %s\n", EscapeMarkdown(a.Reason)))
	}
	if a.Sentiment != "" {
		b.WriteString(fmt.Sprintf("%s *Sentiment:* %s\n", sentimentIcon(a.Sentiment), EscapeMarkdown(a.Sentiment)))
	}
	if len(a.Assets) > 0 {
		b.WriteString(fmt.Sprintf("💰 *Assets:* `%s`\n", strings.Join(a.Assets, ", ")))
	}
	if a.Followers > 0 {
		b.WriteString(fmt.Sprintf("👥 *Followers:* %s\n", humanize.Comma(a.Followers)))
	}
	if !a.PostedAt.IsZero() {
		b.WriteString(fmt.Sprintf("🕒 *Posted:* %s\n", humanize.Time(a.PostedAt)))
	}
	if a.Text != "" {
		b.WriteString("\n")
		b.WriteString(EscapeMarkdown(a.Text))
		b.WriteString("\n")
	}

	return Truncate(b.String(), MaxMessageLength)
}

// Truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - len("…")
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func importanceIcon(importance string) string {
	switch strings.ToLower(importance) {
	case "high":
		return "🚨"
	case "medium":
		return "📣"
	default:
		return "ℹ️"
	}
}

func sentimentIcon(sentiment string) string {
	switch strings.ToLower(sentiment) {
	case "bullish":
		return "🟢"
	case "bearish":
		return "🔴"
	default:
		return "🟡"
	}
}
