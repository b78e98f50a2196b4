package notifier

import (
	"fmt"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/dto"
)

// Keys of Notification.Data.
const (
	DataPostID    = "post_id"
	DataSentiment = "sentiment"
	DataAssets    = "assets"
	DataHandle    = "handle"
	DataFollowers = "followers"
	DataPostedAt  = "posted_at"
	DataScore     = "quality_score"
)

// BuildPostNotification builds the alert for a post that passed the decision rules.
func BuildPostNotification(account entity.Account, post entity.PostAnalysis, reason string) dto.Notification {
	sentiment := string(entity.SentimentNeutral)
	if len(post.Analysis.MentionedAssets) > 0 {
		sentiment = string(post.Analysis.MentionedAssets[0].Sentiment)
	}

	return dto.Notification{
		Title:      fmt.Sprintf("High-quality post from @%s", account.Handle),
		Message:    fmt.Sprintf("%s\nPost: %s", reason, post.Content.Text),
		Importance: dto.ImportanceHigh,
		Data: map[string]interface{}{
			DataPostID:    post.PostID,
			DataSentiment: sentiment,
			DataAssets:    post.Analysis.Symbols(),
			DataHandle:    account.Handle,
			DataFollowers: account.Profile.FollowersCount,
			DataPostedAt:  post.Content.CreatedAt.UTC().Format(time.RFC3339),
			DataScore:     post.QualityScore,
		},
	}
}
