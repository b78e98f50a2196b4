package engine

import (
	"testing"

	"golang-signal-scryper/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_EndToEndPost(t *testing.T) {
	a := Analyze("BTC bullish because on-chain data shows 25% growth")

	require.Len(t, a.MentionedAssets, 1)
	assert.Equal(t, "BTC", a.MentionedAssets[0].Symbol)
	assert.Equal(t, "Bitcoin", a.MentionedAssets[0].Name)
	assert.Equal(t, entity.SentimentBullish, a.MentionedAssets[0].Sentiment)
	assert.Equal(t, 1.0, a.MentionedAssets[0].Confidence)
	assert.Equal(t, 0.33, a.SentimentScore)
	assert.True(t, a.QualityIndicators.HasData)
	assert.True(t, a.QualityIndicators.HasReasoning)
	assert.False(t, a.QualityIndicators.IsOriginal)
	assert.Equal(t, 1.0, a.QualityIndicators.Credibility)
	assert.True(t, a.IsActionable)
	assert.Equal(t, []string{"crypto"}, []string(a.Topics))
}

func TestAnalyze_IsDeterministic(t *testing.T) {
	text := "ETH and SOL look strong, breakout likely because staking yield is 5%"
	assert.Equal(t, Analyze(text), Analyze(text))
}

func TestAnalyze_EmptyText(t *testing.T) {
	a := Analyze("")

	assert.NotNil(t, a.MentionedAssets)
	assert.Empty(t, a.MentionedAssets)
	assert.Equal(t, []string{"crypto"}, []string(a.Topics))
	assert.Equal(t, 0.0, a.SentimentScore)
	assert.Empty(t, a.Keywords)
	assert.False(t, a.IsActionable)
	assert.Equal(t, 0.5, a.QualityIndicators.Credibility)
}

func TestAnalyze_ActionableGate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "all conditions", text: "bitcoin bullish because volume is up 40%", want: true},
		{name: "no asset", text: "market bullish because volume is up 40%", want: false},
		{name: "neutral sentiment", text: "bitcoin moves because volume is up 40%", want: false},
		{name: "no data", text: "bitcoin bullish because volume is rising", want: false},
		{name: "no reasoning", text: "bitcoin bullish, volume is up 40%", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Analyze(tt.text).IsActionable)
		})
	}
}

func TestAnalyze_ConfidenceSplitsAcrossAssets(t *testing.T) {
	a := Analyze("Rotating from bitcoin into ethereum and solana")

	require.Len(t, a.MentionedAssets, 3)
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, a.Symbols())
	for _, asset := range a.MentionedAssets {
		assert.Equal(t, 0.33, asset.Confidence)
	}
}

func TestAnalyze_SymbolMention(t *testing.T) {
	a := Analyze("Watching LINK here")

	require.Len(t, a.MentionedAssets, 1)
	assert.Equal(t, "LINK", a.MentionedAssets[0].Symbol)
}

func TestSentimentScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "neutral", text: "nothing to see", want: 0},
		{name: "two positive", text: "Bullish breakout", want: 0.67},
		{name: "clamped positive", text: "bullish buy moon pump strong", want: 1},
		{name: "clamped negative", text: "bearish dump crash weak sell", want: -1},
		{name: "mixed", text: "bullish but weak", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SentimentScore(tt.text))
		})
	}
}

func TestSentimentLabel(t *testing.T) {
	assert.Equal(t, entity.SentimentBullish, SentimentLabel(0.33))
	assert.Equal(t, entity.SentimentNeutral, SentimentLabel(0.2))
	assert.Equal(t, entity.SentimentNeutral, SentimentLabel(-0.2))
	assert.Equal(t, entity.SentimentBearish, SentimentLabel(-0.33))
}

func TestDetectTopics(t *testing.T) {
	assert.Equal(t, []string{"DeFi", "trading"}, []string(detectTopics("New DEX liquidity, opening a position")))
	assert.Equal(t, []string{"crypto", "NFT"}, []string(detectTopics("Blockchain gaming NFT drop")))
}

func TestExtractKeywords(t *testing.T) {
	kw := ExtractKeywords("Huge #Airdrop! Airdrop incoming for the $ARB holders, huge news")

	assert.Equal(t, []string{"huge", "#airdrop", "airdrop", "incoming", "holders", "news"}, []string(kw))
}

func TestExtractKeywords_LimitsToFifteen(t *testing.T) {
	text := "alpha bravo charlie delta echoes foxtrot golf1 hotel india juliet kilo1 lima1 mike1 november oscar papa1 quebec"

	kw := ExtractKeywords(text)

	assert.Len(t, kw, maxKeywords)
	assert.Equal(t, "alpha", kw[0])
	assert.Equal(t, "oscar", kw[maxKeywords-1])
}
