package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang-signal-scryper/internal/scanner/config"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/pkg/logger"
	"golang-signal-scryper/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// PostSource fetches posts and profiles from the upstream social platform.
type PostSource interface {
	FetchRecentPosts(ctx context.Context, handle string, limit int) ([]dto.Post, error)
	FetchProfile(ctx context.Context, handle string) (*dto.Profile, error)
	FetchFollowing(ctx context.Context, handle string) ([]dto.Profile, error)
}

type twitterAPIRepository struct {
	cfg            config.TwitterAPI
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewTwitterAPIRepository creates a PostSource backed by twitterapi.io.
func NewTwitterAPIRepository(cfg config.TwitterAPI, log *logger.Logger) PostSource {
	perMinute := cfg.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &twitterAPIRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		requestLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (r *twitterAPIRepository) FetchRecentPosts(ctx context.Context, handle string, limit int) ([]dto.Post, error) {
	endpoint := fmt.Sprintf("%s/twitter/user-tweets/%s?limit=%d", r.cfg.BaseURL, url.PathEscape(handle), limit)
	body, err := r.sendRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch posts for @%s: %w", handle, err)
	}

	var envelope rawEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode posts for @%s: %w", handle, err)
	}

	raw := envelope.Data
	if len(raw) == 0 {
		raw = envelope.Tweets
	}

	var tweets []rawTweet
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tweets); err != nil {
			return nil, fmt.Errorf("decode posts for @%s: %w", handle, err)
		}
	}

	posts := make([]dto.Post, 0, len(tweets))
	for _, t := range tweets {
		post := t.normalize()
		if post.ID == "" {
			continue
		}
		posts = append(posts, post)
		if limit > 0 && len(posts) == limit {
			break
		}
	}

	r.log.DebugContext(ctx, "Fetched recent posts",
		logger.StringField("handle", handle),
		logger.IntField("count", len(posts)),
	)
	return posts, nil
}

func (r *twitterAPIRepository) FetchProfile(ctx context.Context, handle string) (*dto.Profile, error) {
	endpoint := fmt.Sprintf("%s/twitter/user/%s", r.cfg.BaseURL, url.PathEscape(handle))
	body, err := r.sendRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch profile for @%s: %w", handle, err)
	}

	var envelope rawEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode profile for @%s: %w", handle, err)
	}

	raw := envelope.Data
	if len(raw) == 0 {
		raw = body
	}
	var user rawUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode profile for @%s: %w", handle, err)
	}

	profile := user.normalize()
	if profile.Handle == "" {
		profile.Handle = handle
	}
	return &profile, nil
}

func (r *twitterAPIRepository) FetchFollowing(ctx context.Context, handle string) ([]dto.Profile, error) {
	endpoint := fmt.Sprintf("%s/twitter/following/%s", r.cfg.BaseURL, url.PathEscape(handle))
	body, err := r.sendRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch following for @%s: %w", handle, err)
	}

	var envelope rawEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode following for @%s: %w", handle, err)
	}

	raw := envelope.Data
	if len(raw) == 0 {
		raw = envelope.Following
	}
	var users []rawUser
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &users); err != nil {
			return nil, fmt.Errorf("decode following for @%s: %w", handle, err)
		}
	}

	profiles := make([]dto.Profile, 0, len(users))
	for _, u := range users {
		p := u.normalize()
		if p.Handle == "" {
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

func (r *twitterAPIRepository) sendRequest(ctx context.Context, method, endpoint string) ([]byte, error) {
	fields := []zap.Field{
		zap.String("url", endpoint),
		zap.Int("max_request_per_minute", r.cfg.MaxRequestPerMinute),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to wait for request limit", fields...)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to create new http request", fields...)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to send request to post source", fields...)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to read response body from post source", fields...)
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		fields = append(fields, zap.Int("status_code", resp.StatusCode))
		r.log.ErrorContext(ctx, "Received non-OK response from post source", fields...)
		return nil, fmt.Errorf("post source returned status %d", resp.StatusCode)
	}

	return body, nil
}

// rawEnvelope covers the list keys the upstream has used over time.
type rawEnvelope struct {
	Data      json.RawMessage `json:"data"`
	Tweets    json.RawMessage `json:"tweets"`
	Following json.RawMessage `json:"following"`
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(b)
	return nil
}

type rawPublicMetrics struct {
	LikeCount       int64 `json:"like_count"`
	RetweetCount    int64 `json:"retweet_count"`
	ReplyCount      int64 `json:"reply_count"`
	ImpressionCount int64 `json:"impression_count"`
	FollowersCount  int64 `json:"followers_count"`
	FollowingCount  int64 `json:"following_count"`
}

type rawTweet struct {
	ID            flexString `json:"id"`
	TweetID       flexString `json:"tweet_id"`
	Text          string     `json:"text"`
	CreatedAt     string     `json:"created_at"`
	CreatedAtDate string     `json:"created_at_date"`
	Lang          string     `json:"lang"`
	Attachments   struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
	Media    []string `json:"media"`
	Entities struct {
		URLs []struct {
			ExpandedURL string `json:"expanded_url"`
			URL         string `json:"url"`
		} `json:"urls"`
	} `json:"entities"`
	URLs          []string         `json:"urls"`
	PublicMetrics rawPublicMetrics `json:"public_metrics"`
	Metrics       struct {
		Likes    int64 `json:"likes"`
		Retweets int64 `json:"retweets"`
		Replies  int64 `json:"replies"`
		Views    int64 `json:"views"`
	} `json:"metrics"`
	LikeCount    int64 `json:"like_count"`
	RetweetCount int64 `json:"retweet_count"`
	ReplyCount   int64 `json:"reply_count"`
	ViewCount    int64 `json:"view_count"`
}

func (t rawTweet) normalize() dto.Post {
	id := string(t.ID)
	if id == "" {
		id = string(t.TweetID)
	}

	media := t.Attachments.MediaKeys
	if len(media) == 0 {
		media = t.Media
	}
	if media == nil {
		media = []string{}
	}

	urls := make([]string, 0, len(t.Entities.URLs))
	for _, u := range t.Entities.URLs {
		if u.ExpandedURL != "" {
			urls = append(urls, u.ExpandedURL)
		} else {
			urls = append(urls, u.URL)
		}
	}
	if len(urls) == 0 && len(t.URLs) > 0 {
		urls = t.URLs
	}

	return dto.Post{
		ID:        id,
		Text:      t.Text,
		CreatedAt: parsePostTime(firstNonEmpty(t.CreatedAt, t.CreatedAtDate)),
		Lang:      t.Lang,
		Media:     media,
		URLs:      urls,
		Metrics: dto.PostMetrics{
			Likes:    firstPositive(t.PublicMetrics.LikeCount, t.Metrics.Likes, t.LikeCount),
			Reshares: firstPositive(t.PublicMetrics.RetweetCount, t.Metrics.Retweets, t.RetweetCount),
			Replies:  firstPositive(t.PublicMetrics.ReplyCount, t.Metrics.Replies, t.ReplyCount),
			Views:    firstPositive(t.PublicMetrics.ImpressionCount, t.Metrics.Views, t.ViewCount),
		},
	}
}

type rawUser struct {
	ID              flexString       `json:"id"`
	UserID          flexString       `json:"user_id"`
	Username        string           `json:"username"`
	UserName        string           `json:"userName"`
	TwitterHandle   string           `json:"twitter_handle"`
	Name            string           `json:"name"`
	DisplayName     string           `json:"display_name"`
	Description     string           `json:"description"`
	Bio             string           `json:"bio"`
	PublicMetrics   rawPublicMetrics `json:"public_metrics"`
	FollowersCount  int64            `json:"followers_count"`
	Followers       int64            `json:"followers"`
	FollowingCount  int64            `json:"following_count"`
	Following       int64            `json:"following"`
	Verified        bool             `json:"verified"`
	IsBlueVerified  bool             `json:"isBlueVerified"`
	ProfileImageURL string           `json:"profile_image_url"`
	ProfilePicture  string           `json:"profilePicture"`
}

func (u rawUser) normalize() dto.Profile {
	handle := utils.NormalizeHandle(firstNonEmpty(u.Username, u.UserName, u.TwitterHandle))
	return dto.Profile{
		Handle:          handle,
		UserID:          firstNonEmpty(string(u.ID), string(u.UserID)),
		DisplayName:     firstNonEmpty(u.Name, u.DisplayName, handle),
		Bio:             firstNonEmpty(u.Description, u.Bio),
		FollowersCount:  firstPositive(u.PublicMetrics.FollowersCount, u.FollowersCount, u.Followers),
		FollowingCount:  firstPositive(u.PublicMetrics.FollowingCount, u.FollowingCount, u.Following),
		Verified:        u.Verified || u.IsBlueVerified,
		ProfileImageURL: firstNonEmpty(u.ProfileImageURL, u.ProfilePicture),
	}
}

var postTimeLayouts = []string{
	time.RFC3339Nano,
	time.RubyDate,
	"2006-01-02 15:04:05",
}

// parsePostTime falls back to now for missing or unparseable timestamps.
func parsePostTime(value string) time.Time {
	if value == "" {
		return utils.TimeNow()
	}
	for _, layout := range postTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	if sec, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC()
	}
	return utils.TimeNow()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int64) int64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
