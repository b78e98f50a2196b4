package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// AddedBy records how an account entered the roster.
type AddedBy string

const (
	AddedByFollowingScan AddedBy = "following_scan"
	AddedByFileImport    AddedBy = "file_import"
	AddedByManual        AddedBy = "manual"
)

// ScanFrequency is the operator-facing cadence hint for an account.
type ScanFrequency string

const (
	ScanFrequencyRealTime ScanFrequency = "real-time"
	ScanFrequencyHourly   ScanFrequency = "hourly"
	ScanFrequencyDaily    ScanFrequency = "daily"
)

// Account is one monitored handle together with its rolled-up rating and stats.
type Account struct {
	ID             uint                               `gorm:"primaryKey" json:"id"`
	Handle         string                             `gorm:"type:varchar(64);uniqueIndex;not null" json:"handle"`
	UserID         string                             `gorm:"type:varchar(64)" json:"user_id"`
	DisplayName    string                             `json:"display_name"`
	Profile        AccountProfile                     `gorm:"embedded;embeddedPrefix:profile_" json:"profile"`
	Monitoring     MonitoringSettings                 `gorm:"embedded;embeddedPrefix:monitoring_" json:"monitoring"`
	QualityRating  QualityRating                      `gorm:"embedded;embeddedPrefix:quality_" json:"quality_rating"`
	Stats          AccountStats                       `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`
	RecentMentions datatypes.JSONSlice[RecentMention] `gorm:"type:jsonb" json:"recent_mentions"`
	MainTopics     pq.StringArray                     `gorm:"type:text[]" json:"main_topics"`
	Tags           pq.StringArray                     `gorm:"type:text[]" json:"tags"`
	Notes          string                             `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time                          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time                          `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// AccountProfile is the platform profile snapshot taken when the account was last synced.
type AccountProfile struct {
	Bio             string `gorm:"type:text" json:"bio"`
	FollowersCount  int64  `json:"followers_count"`
	FollowingCount  int64  `json:"following_count"`
	Verified        bool   `json:"verified"`
	ProfileImageURL string `json:"profile_image_url"`
}

type MonitoringSettings struct {
	IsActive      bool          `gorm:"index" json:"is_active"`
	AddedAt       time.Time     `json:"added_at"`
	AddedBy       AddedBy       `gorm:"type:varchar(32)" json:"added_by"`
	ScanFrequency ScanFrequency `gorm:"type:varchar(32)" json:"scan_frequency"`
}

// QualityRating is a 0-100 composite score. Every int field stays within [0,100].
type QualityRating struct {
	Score       int       `json:"score"`
	Accuracy    int       `json:"accuracy"`
	Influence   int       `json:"influence"`
	Timeliness  int       `json:"timeliness"`
	LastUpdated time.Time `json:"last_updated"`
}

type AccountStats struct {
	TotalPostsAnalyzed int        `json:"total_posts_analyzed"`
	HighQualityPosts   int        `json:"high_quality_posts"`
	AvgEngagement      float64    `json:"avg_engagement"`
	LastScanAt         *time.Time `json:"last_scan_at,omitempty"`
}

// RecentMention counts how often an account mentioned one asset symbol.
type RecentMention struct {
	Symbol         string    `json:"symbol"`
	MentionCount   int       `json:"mention_count"`
	FirstMentioned time.Time `json:"first_mentioned"`
	LastMentioned  time.Time `json:"last_mentioned"`
}
