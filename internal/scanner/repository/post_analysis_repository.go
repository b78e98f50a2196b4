package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-signal-scryper/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostAnalysisRepository defines the interface for analyzed post data operations.
type PostAnalysisRepository interface {
	Upsert(ctx context.Context, post *entity.PostAnalysis) error
	FindByPostID(ctx context.Context, postID string) (*entity.PostAnalysis, error)
	FindAllByHandle(ctx context.Context, handle string) ([]entity.PostAnalysis, error)
	ListByHandle(ctx context.Context, handle string, limit, offset int) ([]entity.PostAnalysis, error)
	UpdateNotificationDecision(ctx context.Context, postID string, shouldNotify bool, reason string) error
	MarkNotified(ctx context.Context, postID string, at time.Time) error
}

// NewPostAnalysisRepository creates a new GORM-based post analysis repository.
func NewPostAnalysisRepository(db *gorm.DB) PostAnalysisRepository {
	return &postAnalysisRepository{db: db}
}

type postAnalysisRepository struct {
	db *gorm.DB
}

// upsertColumns is every column a re-ingested post refreshes. Notification
// columns are never in this list.
var upsertColumns = []string{
	"account_handle",
	"content_text",
	"content_created_at",
	"content_lang",
	"content_media",
	"content_urls",
	"engagement_likes",
	"engagement_reshares",
	"engagement_replies",
	"engagement_views",
	"analysis_mentioned_assets",
	"analysis_topics",
	"analysis_sentiment_score",
	"analysis_quality_has_data",
	"analysis_quality_has_reasoning",
	"analysis_quality_is_original",
	"analysis_quality_credibility",
	"analysis_keywords",
	"analysis_is_actionable",
	"quality_score",
	"analyzed_at",
}

// Upsert inserts the post or refreshes its analysis, keyed by post id.
func (r *postAnalysisRepository) Upsert(ctx context.Context, post *entity.PostAnalysis) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(post).Error
	if err != nil {
		return fmt.Errorf("upsert post %s: %w", post.PostID, err)
	}
	return nil
}

// FindByPostID returns nil without error when the post has never been stored.
func (r *postAnalysisRepository) FindByPostID(ctx context.Context, postID string) (*entity.PostAnalysis, error) {
	var post entity.PostAnalysis
	result := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&post)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &post, nil
}

// FindAllByHandle loads the full history of an account, oldest post first.
func (r *postAnalysisRepository) FindAllByHandle(ctx context.Context, handle string) ([]entity.PostAnalysis, error) {
	var posts []entity.PostAnalysis
	err := r.db.WithContext(ctx).
		Where("account_handle = ?", handle).
		Order("content_created_at asc, id asc").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postAnalysisRepository) ListByHandle(ctx context.Context, handle string, limit, offset int) ([]entity.PostAnalysis, error) {
	if limit <= 0 {
		limit = 20
	}
	var posts []entity.PostAnalysis
	err := r.db.WithContext(ctx).
		Where("account_handle = ?", handle).
		Order("content_created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateNotificationDecision persists the decision without touching delivery state.
func (r *postAnalysisRepository) UpdateNotificationDecision(ctx context.Context, postID string, shouldNotify bool, reason string) error {
	return r.db.WithContext(ctx).Model(&entity.PostAnalysis{}).
		Where("post_id = ?", postID).
		Updates(map[string]interface{}{
			"notification_should_notify": shouldNotify,
			"notification_reason":        reason,
		}).Error
}

// MarkNotified flips notified to true. Rows already notified are left alone.
func (r *postAnalysisRepository) MarkNotified(ctx context.Context, postID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.PostAnalysis{}).
		Where("post_id = ? AND notification_notified = ?", postID, false).
		Updates(map[string]interface{}{
			"notification_notified":    true,
			"notification_notified_at": at,
		}).Error
}
