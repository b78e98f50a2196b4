package config

import (
	"time"

	"golang-signal-scryper/pkg/config"
)

// Scanner holds orchestrator settings. The Default* values seed the stored
// scan config the first time it is created.
type Scanner struct {
	DefaultPostLimit           int           `mapstructure:"default_post_limit"`
	DefaultScanIntervalMinutes int           `mapstructure:"default_scan_interval_minutes"`
	DefaultMaxConcurrentScans  int           `mapstructure:"default_max_concurrent_scans"`
	DefaultMinQualityScore     int           `mapstructure:"default_min_quality_score"`
	DefaultImportantKeywords   []string      `mapstructure:"default_important_keywords"`
	DefaultAssetWatchlist      []string      `mapstructure:"default_asset_watchlist"`
	ConfigCacheTTL             time.Duration `mapstructure:"config_cache_ttl"`
	CycleLockEnabled           bool          `mapstructure:"cycle_lock_enabled"`
	CycleLockTTL               time.Duration `mapstructure:"cycle_lock_ttl"`
	ScanRequestTimeout         time.Duration `mapstructure:"scan_request_timeout"`
}

// TwitterAPI holds the configuration for the upstream post source.
type TwitterAPI struct {
	BaseURL             string        `mapstructure:"base_url"`
	APIKey              string        `mapstructure:"api_key"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Webhook holds configuration for the generic HTTP notifier.
type Webhook struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Kafka holds configuration for the notification event publisher.
type Kafka struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Notification toggles the Redis stream channel. Telegram, webhook and Kafka
// carry their own Enabled flags.
type Notification struct {
	RedisStreamEnabled bool `mapstructure:"redis_stream_enabled"`
}

// Config holds the full configuration for the scanner service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	API          config.API      `mapstructure:"api"`
	Scanner      Scanner         `mapstructure:"scanner"`
	TwitterAPI   TwitterAPI      `mapstructure:"twitter_api"`
	Telegram     Telegram        `mapstructure:"telegram"`
	Webhook      Webhook         `mapstructure:"webhook"`
	Kafka        Kafka           `mapstructure:"kafka"`
	Notification Notification    `mapstructure:"notification"`
}

func setDefaults(l *config.Loader) {
	l.SetDefault("app.name", "scanner-service")
	l.SetDefault("logger.level", "info")
	l.SetDefault("logger.encoding", "json")
	l.SetDefault("api.port", 8080)
	l.SetDefault("redis.stream_max_len", 10000)

	l.SetDefault("scanner.default_post_limit", 5)
	l.SetDefault("scanner.default_scan_interval_minutes", 10)
	l.SetDefault("scanner.default_max_concurrent_scans", 3)
	l.SetDefault("scanner.default_min_quality_score", 70)
	l.SetDefault("scanner.default_important_keywords", []string{"alpha", "breaking", "airdrop", "token generation event", "listing"})
	l.SetDefault("scanner.default_asset_watchlist", []string{"BTC", "ETH", "SOL", "AVAX", "MATIC"})
	l.SetDefault("scanner.config_cache_ttl", time.Minute)
	l.SetDefault("scanner.cycle_lock_ttl", 30*time.Minute)
	l.SetDefault("scanner.scan_request_timeout", 5*time.Minute)

	l.SetDefault("twitter_api.base_url", "https://api.twitterapi.io")
	l.SetDefault("twitter_api.max_request_per_minute", 60)
	l.SetDefault("twitter_api.timeout", 15*time.Second)

	l.SetDefault("webhook.timeout", 5*time.Second)
	l.SetDefault("kafka.topic", "signal.post.notification")
}

// Load loads the scanner configuration from the given path.
func Load(path string) (*Config, error) {
	l := config.NewLoader()
	setDefaults(l)

	var cfg Config
	if err := l.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
