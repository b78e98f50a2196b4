package entity

import (
	"time"

	"github.com/lib/pq"
)

// ScanConfig is the singleton row that drives every scan cycle.
type ScanConfig struct {
	ID                  uint              `gorm:"primaryKey" json:"id"`
	Name                string            `gorm:"type:varchar(32);uniqueIndex;not null" json:"name"`
	PostLimit           int               `gorm:"not null" json:"post_limit"`
	ScanIntervalMinutes int               `gorm:"not null" json:"scan_interval_minutes"`
	MaxConcurrentScans  int               `gorm:"not null" json:"max_concurrent_scans"`
	NotificationRules   NotificationRules `gorm:"embedded;embeddedPrefix:rule_" json:"notification_rules"`
	UpdatedAt           time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the ScanConfig model.
func (ScanConfig) TableName() string {
	return "scan_configs"
}

// ScanInterval converts the stored minutes to a duration, falling back to 10 minutes.
func (c ScanConfig) ScanInterval() time.Duration {
	if c.ScanIntervalMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.ScanIntervalMinutes) * time.Minute
}

type NotificationRules struct {
	MinQualityScore   int            `gorm:"not null" json:"min_quality_score"`
	ImportantKeywords pq.StringArray `gorm:"type:text[]" json:"important_keywords"`
	AssetWatchlist    pq.StringArray `gorm:"type:text[]" json:"asset_watchlist"`
}
