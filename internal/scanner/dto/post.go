package dto

import "time"

// Post is a normalized upstream post.
type Post struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"created_at"`
	Lang      string      `json:"lang,omitempty"`
	Media     []string    `json:"media"`
	URLs      []string    `json:"urls"`
	Metrics   PostMetrics `json:"metrics"`
}

// PostMetrics holds the raw engagement counters reported upstream.
type PostMetrics struct {
	Likes    int64 `json:"likes"`
	Reshares int64 `json:"reshares"`
	Replies  int64 `json:"replies"`
	Views    int64 `json:"views"`
}

// Profile is a normalized upstream account profile.
type Profile struct {
	Handle          string `json:"handle"`
	UserID          string `json:"user_id"`
	DisplayName     string `json:"display_name"`
	Bio             string `json:"bio,omitempty"`
	FollowersCount  int64  `json:"followers_count"`
	FollowingCount  int64  `json:"following_count"`
	Verified        bool   `json:"verified"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}
