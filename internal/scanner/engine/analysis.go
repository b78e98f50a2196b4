package engine

import (
	"math"
	"regexp"
	"strings"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/pkg/utils"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const maxKeywords = 15

var (
	symbolPattern     = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
	dataPattern       = regexp.MustCompile(`\d|%|\$\d`)
	reasoningPattern  = regexp.MustCompile(`(?i)because|due to|as a result|therefore|hence`)
	originalPattern   = regexp.MustCompile(`(?i)i think|my view|we believe|our analysis|team`)
	nonKeywordPattern = regexp.MustCompile(`[^a-z0-9#\s]`)
)

// Analyze extracts assets, topics, sentiment, quality indicators and keywords from
// raw post text. It is pure and total: any string, including "", yields a result.
func Analyze(text string) entity.Analysis {
	assets := detectAssets(text)
	score := SentimentScore(text)
	label := SentimentLabel(score)

	hasData := dataPattern.MatchString(text)
	hasReasoning := reasoningPattern.MatchString(text)
	indicators := entity.QualityIndicators{
		HasData:      hasData,
		HasReasoning: hasReasoning,
		IsOriginal:   originalPattern.MatchString(text),
		Credibility:  credibility(hasData, hasReasoning),
	}

	mentioned := make(datatypes.JSONSlice[entity.MentionedAsset], 0, len(assets))
	for _, asset := range assets {
		mentioned = append(mentioned, entity.MentionedAsset{
			Symbol:     asset.Symbol,
			Name:       asset.Name,
			Sentiment:  label,
			Confidence: utils.RoundTo(1/float64(len(assets)), 2),
		})
	}

	return entity.Analysis{
		MentionedAssets:   mentioned,
		Topics:            detectTopics(text),
		SentimentScore:    score,
		QualityIndicators: indicators,
		Keywords:          ExtractKeywords(text),
		IsActionable:      isActionable(len(assets), label, indicators),
	}
}

func detectAssets(text string) []Asset {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var found []Asset

	for _, asset := range catalog {
		for _, alias := range asset.Aliases {
			if strings.Contains(lower, alias) {
				if !seen[asset.Symbol] {
					seen[asset.Symbol] = true
					found = append(found, asset)
				}
				break
			}
		}
	}

	for _, token := range symbolPattern.FindAllString(text, -1) {
		asset, ok := LookupAsset(token)
		if !ok || seen[asset.Symbol] {
			continue
		}
		seen[asset.Symbol] = true
		found = append(found, asset)
	}

	return found
}

// SentimentScore counts distinct positive and negative words, clamps the difference
// to [-3,3] and normalizes it to [-1,1] with two decimals.
func SentimentScore(text string) float64 {
	lower := strings.ToLower(text)
	raw := countContained(lower, positiveWords) - countContained(lower, negativeWords)
	clamped := math.Max(-3, math.Min(3, float64(raw)))
	return utils.RoundTo(clamped/3, 2)
}

// SentimentLabel maps a sentiment score to bullish, bearish or neutral.
func SentimentLabel(score float64) entity.Sentiment {
	switch {
	case score > 0.2:
		return entity.SentimentBullish
	case score < -0.2:
		return entity.SentimentBearish
	default:
		return entity.SentimentNeutral
	}
}

func countContained(lower string, words []string) int {
	n := 0
	for _, word := range words {
		if strings.Contains(lower, word) {
			n++
		}
	}
	return n
}

func detectTopics(text string) pq.StringArray {
	lower := strings.ToLower(text)
	var topics pq.StringArray
	for _, rule := range topicRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				topics = append(topics, rule.Topic)
				break
			}
		}
	}
	if len(topics) == 0 {
		return pq.StringArray{defaultTopic}
	}
	return topics
}

func credibility(hasData, hasReasoning bool) float64 {
	c := 0.5
	if hasData {
		c += 0.25
	}
	if hasReasoning {
		c += 0.25
	}
	return math.Min(1, c)
}

// ExtractKeywords returns up to 15 distinct lowercase tokens longer than three
// characters, in first-seen order. "#" survives so hashtags stay intact.
func ExtractKeywords(text string) pq.StringArray {
	cleaned := nonKeywordPattern.ReplaceAllString(strings.ToLower(text), " ")
	seen := make(map[string]bool)
	keywords := pq.StringArray{}
	for _, token := range strings.Fields(cleaned) {
		if len(token) <= 3 || seen[token] {
			continue
		}
		seen[token] = true
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

func isActionable(assetCount int, label entity.Sentiment, q entity.QualityIndicators) bool {
	return assetCount > 0 &&
		label != entity.SentimentNeutral &&
		q.HasData &&
		q.HasReasoning
}
