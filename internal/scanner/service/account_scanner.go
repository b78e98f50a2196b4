package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/engine"
	"golang-signal-scryper/internal/scanner/notifier"
	"golang-signal-scryper/internal/scanner/repository"
	"golang-signal-scryper/pkg/logger"
	"golang-signal-scryper/pkg/metrics"
	"golang-signal-scryper/pkg/utils"

	"github.com/lib/pq"
)

// AccountScanner runs the per-account pipeline: fetch, analyze, rate, persist,
// notify, then recompute the account summary from its full history.
type AccountScanner interface {
	Scan(ctx context.Context, account entity.Account, cfg entity.ScanConfig) (dto.AccountScanResult, error)
}

// NewAccountScanner creates a new AccountScanner.
func NewAccountScanner(
	source repository.PostSource,
	accountRepo repository.AccountRepository,
	postRepo repository.PostAnalysisRepository,
	dispatcher notifier.Dispatcher,
	log *logger.Logger,
) AccountScanner {
	return &accountScanner{
		source:      source,
		accountRepo: accountRepo,
		postRepo:    postRepo,
		dispatcher:  dispatcher,
		logger:      log,
		now:         utils.TimeNow,
	}
}

type accountScanner struct {
	source      repository.PostSource
	accountRepo repository.AccountRepository
	postRepo    repository.PostAnalysisRepository
	dispatcher  notifier.Dispatcher
	logger      *logger.Logger
	now         func() time.Time
}

func (s *accountScanner) Scan(ctx context.Context, account entity.Account, cfg entity.ScanConfig) (dto.AccountScanResult, error) {
	result := dto.AccountScanResult{Handle: account.Handle, QualityScore: account.QualityRating.Score}
	log := s.logger.With(logger.StringField("handle", account.Handle))

	posts, err := s.source.FetchRecentPosts(ctx, account.Handle, cfg.PostLimit)
	if err != nil {
		return result, fmt.Errorf("fetch posts: %w", err)
	}
	result.PostsFetched = len(posts)

	if len(posts) == 0 {
		log.Info("No posts returned for account")
		return result, nil
	}

	// Blending is order dependent, so posts are folded one by one into a local accumulator.
	rating := account.QualityRating
	for _, post := range posts {
		now := s.now()
		analysis := engine.Analyze(post.Text)
		engagement := entity.Engagement{
			Likes:    post.Metrics.Likes,
			Reshares: post.Metrics.Reshares,
			Replies:  post.Metrics.Replies,
			Views:    post.Metrics.Views,
		}

		postRating := engine.RatePost(engine.RatingInput{
			Analysis:   analysis,
			Engagement: engagement,
			Followers:  account.Profile.FollowersCount,
			PostedAt:   post.CreatedAt,
		}, now)
		rating = engine.BlendRating(rating, postRating)

		existing, err := s.postRepo.FindByPostID(ctx, post.ID)
		if err != nil {
			return result, fmt.Errorf("load post %s: %w", post.ID, err)
		}

		record := &entity.PostAnalysis{
			PostID:        post.ID,
			AccountHandle: account.Handle,
			Content: entity.PostContent{
				Text:      post.Text,
				CreatedAt: post.CreatedAt,
				Lang:      post.Lang,
				Media:     stringArray(post.Media),
				URLs:      stringArray(post.URLs),
			},
			Engagement:   engagement,
			Analysis:     analysis,
			QualityScore: postRating.Score,
			AnalyzedAt:   now,
		}
		if err := s.postRepo.Upsert(ctx, record); err != nil {
			return result, err
		}
		result.PostsAnalyzed++
		metrics.PostsAnalyzed.WithLabelValues(strconv.FormatBool(analysis.IsActionable)).Inc()

		// A post that was already decided is never re-dispatched: either it was
		// delivered, or a failed delivery is left for manual reconciliation.
		if existing != nil && (existing.Notification.Notified || existing.Notification.ShouldNotify) {
			continue
		}

		decision := engine.DecideNotification(analysis, postRating.Score, cfg.NotificationRules)
		if !decision.ShouldNotify {
			continue
		}

		if err := s.postRepo.UpdateNotificationDecision(ctx, post.ID, true, decision.Reason); err != nil {
			return result, fmt.Errorf("save decision for post %s: %w", post.ID, err)
		}

		n := notifier.BuildPostNotification(account, *record, decision.Reason)
		if err := s.dispatcher.Dispatch(ctx, n); err != nil {
			result.DispatchFailed++
			log.Warn("Notification dispatch failed",
				logger.StringField("post_id", post.ID),
				logger.ErrorField(err),
			)
			continue
		}

		if err := s.postRepo.MarkNotified(ctx, post.ID, s.now()); err != nil {
			return result, fmt.Errorf("mark post %s notified: %w", post.ID, err)
		}
		result.Notified++
	}

	history, err := s.postRepo.FindAllByHandle(ctx, account.Handle)
	if err != nil {
		return result, fmt.Errorf("load history: %w", err)
	}
	summary := engine.Aggregate(history)

	scannedAt := s.now()
	err = s.accountRepo.UpdateSummary(ctx, account.Handle, repository.AccountSummary{
		Stats: entity.AccountStats{
			TotalPostsAnalyzed: summary.TotalPosts,
			HighQualityPosts:   summary.HighQualityCount,
			AvgEngagement:      summary.AvgEngagement,
			LastScanAt:         &scannedAt,
		},
		Rating:         rating,
		RecentMentions: summary.Mentions,
		MainTopics:     summary.MainTopics,
	})
	if err != nil {
		return result, err
	}
	result.QualityScore = rating.Score

	log.Info("Account scan completed",
		logger.IntField("posts", result.PostsAnalyzed),
		logger.IntField("notified", result.Notified),
		logger.IntField("quality_score", rating.Score),
	)
	return result, nil
}

func stringArray(values []string) pq.StringArray {
	if values == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(values)
}

