package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Sentiment is the document-level label derived from the sentiment score.
type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentBearish Sentiment = "bearish"
	SentimentNeutral Sentiment = "neutral"
)

// PostAnalysis is the stored result of analyzing and rating one post.
// Only the Notification sub-state changes after the first write.
type PostAnalysis struct {
	ID            uint              `gorm:"primaryKey" json:"id"`
	PostID        string            `gorm:"type:varchar(64);uniqueIndex;not null" json:"post_id"`
	AccountHandle string            `gorm:"type:varchar(64);index;not null" json:"account_handle"`
	Content       PostContent       `gorm:"embedded;embeddedPrefix:content_" json:"content"`
	Engagement    Engagement        `gorm:"embedded;embeddedPrefix:engagement_" json:"engagement"`
	Analysis      Analysis          `gorm:"embedded;embeddedPrefix:analysis_" json:"analysis"`
	QualityScore  int               `json:"quality_score"`
	Notification  NotificationState `gorm:"embedded;embeddedPrefix:notification_" json:"notification"`
	AnalyzedAt    time.Time         `json:"analyzed_at"`
	CreatedAt     time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the PostAnalysis model.
func (PostAnalysis) TableName() string {
	return "post_analyses"
}

type PostContent struct {
	Text      string         `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	Lang      string         `gorm:"type:varchar(16)" json:"lang,omitempty"`
	Media     pq.StringArray `gorm:"type:text[]" json:"media"`
	URLs      pq.StringArray `gorm:"type:text[]" json:"urls"`
}

// Engagement counters. All values are non-negative.
type Engagement struct {
	Likes    int64 `json:"likes"`
	Reshares int64 `json:"reshares"`
	Replies  int64 `json:"replies"`
	Views    int64 `json:"views"`
}

// Total is the weighted engagement used by both influence and the account average.
func (e Engagement) Total() float64 {
	return float64(e.Likes) + float64(e.Reshares)*2 + float64(e.Replies)*1.5 + float64(e.Views)/1000
}

// Analysis is the output of the content analysis engine.
type Analysis struct {
	MentionedAssets   datatypes.JSONSlice[MentionedAsset] `gorm:"type:jsonb" json:"mentioned_assets"`
	Topics            pq.StringArray                      `gorm:"type:text[]" json:"topics"`
	SentimentScore    float64                             `json:"sentiment_score"`
	QualityIndicators QualityIndicators                   `gorm:"embedded;embeddedPrefix:quality_" json:"quality_indicators"`
	Keywords          pq.StringArray                      `gorm:"type:text[]" json:"keywords"`
	IsActionable      bool                                `json:"is_actionable"`
}

// Symbols lists the detected asset symbols in detection order.
func (a Analysis) Symbols() []string {
	symbols := make([]string, 0, len(a.MentionedAssets))
	for _, asset := range a.MentionedAssets {
		symbols = append(symbols, asset.Symbol)
	}
	return symbols
}

type MentionedAsset struct {
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	Sentiment  Sentiment `json:"sentiment"`
	Confidence float64   `json:"confidence"`
}

type QualityIndicators struct {
	HasData      bool    `json:"has_data"`
	HasReasoning bool    `json:"has_reasoning"`
	IsOriginal   bool    `json:"is_original"`
	Credibility  float64 `json:"credibility"`
}

// NotificationState tracks alert delivery. Notified only ever moves from false to true.
type NotificationState struct {
	ShouldNotify bool       `json:"should_notify"`
	Notified     bool       `json:"notified"`
	Reason       string     `gorm:"type:text" json:"reason,omitempty"`
	NotifiedAt   *time.Time `json:"notified_at,omitempty"`
}
