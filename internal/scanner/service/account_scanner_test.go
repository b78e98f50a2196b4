package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/config"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/notifier"
	"golang-signal-scryper/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scanNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type scannerFixture struct {
	source     *fakeSource
	accounts   *fakeAccountRepo
	posts      *fakePostRepo
	dispatcher *fakeDispatcher
	scanner    AccountScanner
	cfg        entity.ScanConfig
}

func newScannerFixture(accounts ...entity.Account) *scannerFixture {
	f := &scannerFixture{
		source:     &fakeSource{posts: map[string][]dto.Post{}, errs: map[string]error{}},
		accounts:   newFakeAccountRepo(accounts...),
		posts:      newFakePostRepo(),
		dispatcher: &fakeDispatcher{},
		cfg:        DefaultScanConfig(config.Scanner{}),
	}
	s := NewAccountScanner(f.source, f.accounts, f.posts, f.dispatcher, logger.NewNop()).(*accountScanner)
	s.now = func() time.Time { return scanNow }
	f.scanner = s
	return f
}

func btcPost(id string) dto.Post {
	return dto.Post{
		ID:        id,
		Text:      "BTC bullish because on-chain data shows 25% growth",
		CreatedAt: scanNow.Add(-5 * time.Minute),
		Metrics:   dto.PostMetrics{Likes: 10, Reshares: 2, Replies: 1, Views: 500},
	}
}

func TestAccountScanner_EndToEndPost(t *testing.T) {
	account := activeAccount("trader", 0)
	f := newScannerFixture(account)
	f.source.posts["trader"] = []dto.Post{btcPost("p1")}

	result, err := f.scanner.Scan(context.Background(), account, f.cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, result.PostsFetched)
	assert.Equal(t, 1, result.PostsAnalyzed)
	assert.Equal(t, 1, result.Notified)
	assert.Equal(t, 0, result.DispatchFailed)

	stored := f.posts.get("p1")
	require.Len(t, stored.Analysis.MentionedAssets, 1)
	assert.Equal(t, "BTC", stored.Analysis.MentionedAssets[0].Symbol)
	assert.Equal(t, entity.SentimentBullish, stored.Analysis.MentionedAssets[0].Sentiment)
	assert.True(t, stored.Analysis.QualityIndicators.HasData)
	assert.True(t, stored.Analysis.QualityIndicators.HasReasoning)
	assert.True(t, stored.Analysis.IsActionable)
	assert.Equal(t, 70, stored.QualityScore)
	assert.True(t, stored.Notification.ShouldNotify)
	assert.True(t, stored.Notification.Notified)
	assert.Equal(t, "Quality score 70 exceeds threshold 70", stored.Notification.Reason)
	require.NotNil(t, stored.Notification.NotifiedAt)

	require.Len(t, f.dispatcher.sent, 1)
	assert.Equal(t, "High-quality post from @trader", f.dispatcher.sent[0].Title)

	updated := f.accounts.get("trader")
	assert.Equal(t, 1, updated.Stats.TotalPostsAnalyzed)
	require.NotNil(t, updated.Stats.LastScanAt)
	assert.Equal(t, scanNow, *updated.Stats.LastScanAt)
	assert.Equal(t, 28, updated.QualityRating.Score)
	assert.Equal(t, 40, updated.QualityRating.Timeliness)
	require.Len(t, updated.RecentMentions, 1)
	assert.Equal(t, "BTC", updated.RecentMentions[0].Symbol)
	assert.Equal(t, []string{"crypto"}, []string(updated.MainTopics))
}

func TestAccountScanner_ReingestionDoesNotRedispatch(t *testing.T) {
	account := activeAccount("trader", 0)
	f := newScannerFixture(account)
	f.source.posts["trader"] = []dto.Post{btcPost("p1")}

	_, err := f.scanner.Scan(context.Background(), account, f.cfg)
	require.NoError(t, err)
	second, err := f.scanner.Scan(context.Background(), f.accounts.get("trader"), f.cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, f.dispatcher.calls)
	assert.Equal(t, 0, second.Notified)
	assert.True(t, f.posts.get("p1").Notification.Notified)
	assert.Equal(t, 1, f.accounts.get("trader").Stats.TotalPostsAnalyzed)
}

func TestAccountScanner_DispatchFailureIsNotRetried(t *testing.T) {
	account := activeAccount("trader", 0)
	f := newScannerFixture(account)
	f.source.posts["trader"] = []dto.Post{btcPost("p1")}
	f.dispatcher.err = errors.New("telegram down")

	result, err := f.scanner.Scan(context.Background(), account, f.cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, result.DispatchFailed)
	assert.Equal(t, 0, result.Notified)

	stored := f.posts.get("p1")
	assert.True(t, stored.Notification.ShouldNotify)
	assert.False(t, stored.Notification.Notified)

	f.dispatcher.err = nil
	_, err = f.scanner.Scan(context.Background(), account, f.cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, f.dispatcher.calls)
	assert.False(t, f.posts.get("p1").Notification.Notified)
}

func TestAccountScanner_FailedTransportBehindLogChannelIsNotNotified(t *testing.T) {
	webhookCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookCalls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	account := activeAccount("trader", 0)
	f := newScannerFixture(account)
	f.source.posts["trader"] = []dto.Post{btcPost("p1")}
	dispatcher := notifier.NewMultiDispatcher(logger.NewNop(),
		notifier.NewLogDispatcher(logger.NewNop()),
		notifier.NewWebhookDispatcher(srv.URL, time.Second),
	)
	s := NewAccountScanner(f.source, f.accounts, f.posts, dispatcher, logger.NewNop()).(*accountScanner)
	s.now = func() time.Time { return scanNow }

	result, err := s.Scan(context.Background(), account, f.cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, webhookCalls)
	assert.Equal(t, 0, result.Notified)
	assert.Equal(t, 1, result.DispatchFailed)
	stored := f.posts.get("p1")
	assert.True(t, stored.Notification.ShouldNotify)
	assert.False(t, stored.Notification.Notified)
	assert.Nil(t, stored.Notification.NotifiedAt)
}

// staleChatter rates 26: accuracy 50, influence 0, timeliness 20.
func staleChatter(id string) dto.Post {
	return dto.Post{ID: id, Text: "gm everyone", CreatedAt: scanNow.Add(-48 * time.Hour)}
}

func TestAccountScanner_BlendFollowsPostOrder(t *testing.T) {
	cases := []struct {
		name           string
		posts          []dto.Post
		wantScore      int
		wantTimeliness int
	}{
		// 0 -> 28 (blend 70) -> 27 (blend 26)
		{name: "fresh then stale", posts: []dto.Post{btcPost("a"), staleChatter("b")}, wantScore: 27, wantTimeliness: 32},
		// 0 -> 10 (blend 26) -> 34 (blend 70)
		{name: "stale then fresh", posts: []dto.Post{staleChatter("b"), btcPost("a")}, wantScore: 34, wantTimeliness: 45},
	}

	scores := make([]int, 0, len(cases))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := activeAccount("trader", 0)
			f := newScannerFixture(account)
			f.source.posts["trader"] = tc.posts

			result, err := f.scanner.Scan(context.Background(), account, f.cfg)
			require.NoError(t, err)

			assert.Equal(t, 70, f.posts.get("a").QualityScore)
			assert.Equal(t, 26, f.posts.get("b").QualityScore)
			assert.Equal(t, 1, f.accounts.summaryCalls)

			updated := f.accounts.get("trader")
			assert.Equal(t, tc.wantScore, updated.QualityRating.Score)
			assert.Equal(t, tc.wantTimeliness, updated.QualityRating.Timeliness)
			assert.Equal(t, tc.wantScore, result.QualityScore)
			scores = append(scores, updated.QualityRating.Score)
		})
	}
	require.Len(t, scores, 2)
	assert.NotEqual(t, scores[0], scores[1])
}

func TestAccountScanner_NonActionablePostIsStoredOnly(t *testing.T) {
	account := activeAccount("trader", 0)
	f := newScannerFixture(account)
	f.source.posts["trader"] = []dto.Post{{ID: "p1", Text: "gm everyone", CreatedAt: scanNow}}

	result, err := f.scanner.Scan(context.Background(), account, f.cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, result.PostsAnalyzed)
	assert.Equal(t, 0, f.dispatcher.calls)
	assert.False(t, f.posts.get("p1").Notification.ShouldNotify)
}

func TestAccountScanner_FetchErrorLeavesSummary(t *testing.T) {
	account := activeAccount("trader", 0)
	f := newScannerFixture(account)
	f.source.errs["trader"] = errors.New("upstream 500")

	_, err := f.scanner.Scan(context.Background(), account, f.cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch posts")
	assert.Nil(t, f.accounts.get("trader").Stats.LastScanAt)
}

func TestAccountScanner_NoPostsLeavesSummary(t *testing.T) {
	account := activeAccount("trader", 0)
	f := newScannerFixture(account)

	result, err := f.scanner.Scan(context.Background(), account, f.cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, result.PostsFetched)
	assert.Nil(t, f.accounts.get("trader").Stats.LastScanAt)
}
