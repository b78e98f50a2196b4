package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/internal/scanner/config"
	"golang-signal-scryper/internal/scanner/dto"
	"golang-signal-scryper/internal/scanner/repository"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/logger"

	"github.com/lib/pq"
	"github.com/patrickmn/go-cache"
)

const scanConfigCacheKey = "scan_config"

// ConfigService reads and updates the stored scan config.
type ConfigService interface {
	GetScanConfig(ctx context.Context) (*entity.ScanConfig, error)
	UpdateScanConfig(ctx context.Context, req *dto.UpdateScanConfigRequest) (*entity.ScanConfig, error)
	// OnUpdate registers fn to run after every successful update.
	OnUpdate(fn func(cfg entity.ScanConfig))
}

// NewConfigService creates a new ConfigService with a read-through cache.
func NewConfigService(repo repository.ScanConfigRepository, scannerCfg config.Scanner, log *logger.Logger) ConfigService {
	ttl := scannerCfg.ConfigCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &configService{
		repo:     repo,
		defaults: DefaultScanConfig(scannerCfg),
		cache:    cache.New(ttl, 2*ttl),
		logger:   log,
	}
}

type configService struct {
	repo      repository.ScanConfigRepository
	defaults  entity.ScanConfig
	cache     *cache.Cache
	logger    *logger.Logger
	mu        sync.Mutex
	listeners []func(cfg entity.ScanConfig)
}

// DefaultScanConfig builds the config row created on first access.
func DefaultScanConfig(c config.Scanner) entity.ScanConfig {
	return entity.ScanConfig{
		Name:                common.DefaultScanConfigName,
		PostLimit:           positiveOr(c.DefaultPostLimit, 5),
		ScanIntervalMinutes: positiveOr(c.DefaultScanIntervalMinutes, 10),
		MaxConcurrentScans:  positiveOr(c.DefaultMaxConcurrentScans, 3),
		NotificationRules: entity.NotificationRules{
			MinQualityScore:   positiveOr(c.DefaultMinQualityScore, 70),
			ImportantKeywords: stringsOr(c.DefaultImportantKeywords, []string{"alpha", "breaking", "airdrop", "token generation event", "listing"}),
			AssetWatchlist:    stringsOr(c.DefaultAssetWatchlist, []string{"BTC", "ETH", "SOL", "AVAX", "MATIC"}),
		},
	}
}

func (s *configService) GetScanConfig(ctx context.Context) (*entity.ScanConfig, error) {
	if cached, ok := s.cache.Get(scanConfigCacheKey); ok {
		cfg := cached.(entity.ScanConfig)
		return &cfg, nil
	}

	cfg, err := s.repo.GetOrCreate(ctx, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("load scan config: %w", err)
	}

	s.cache.SetDefault(scanConfigCacheKey, *cfg)
	return cfg, nil
}

// UpdateScanConfig merges the non-nil fields of req into the stored config.
func (s *configService) UpdateScanConfig(ctx context.Context, req *dto.UpdateScanConfigRequest) (*entity.ScanConfig, error) {
	if err := validateScanConfigRequest(req); err != nil {
		return nil, err
	}

	s.cache.Delete(scanConfigCacheKey)
	current, err := s.repo.GetOrCreate(ctx, s.defaults)
	if err != nil {
		return nil, fmt.Errorf("load scan config: %w", err)
	}

	if req.PostLimit != nil {
		current.PostLimit = *req.PostLimit
	}
	if req.ScanIntervalMinutes != nil {
		current.ScanIntervalMinutes = *req.ScanIntervalMinutes
	}
	if req.MaxConcurrentScans != nil {
		current.MaxConcurrentScans = *req.MaxConcurrentScans
	}
	if req.MinQualityScore != nil {
		current.NotificationRules.MinQualityScore = *req.MinQualityScore
	}
	if req.ImportantKeywords != nil {
		current.NotificationRules.ImportantKeywords = pq.StringArray(*req.ImportantKeywords)
	}
	if req.AssetWatchlist != nil {
		current.NotificationRules.AssetWatchlist = pq.StringArray(*req.AssetWatchlist)
	}

	if err := s.repo.Save(ctx, current); err != nil {
		return nil, fmt.Errorf("save scan config: %w", err)
	}
	s.cache.SetDefault(scanConfigCacheKey, *current)

	s.logger.Info("Scan config updated",
		logger.IntField("post_limit", current.PostLimit),
		logger.IntField("scan_interval_minutes", current.ScanIntervalMinutes),
		logger.IntField("max_concurrent_scans", current.MaxConcurrentScans),
		logger.IntField("min_quality_score", current.NotificationRules.MinQualityScore),
	)

	s.mu.Lock()
	listeners := append([]func(entity.ScanConfig){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(*current)
	}

	return current, nil
}

func (s *configService) OnUpdate(fn func(cfg entity.ScanConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func validateScanConfigRequest(req *dto.UpdateScanConfigRequest) error {
	if req == nil {
		return fmt.Errorf("%w: empty request", common.ErrInvalidArgument)
	}
	if req.PostLimit != nil && (*req.PostLimit < 1 || *req.PostLimit > 100) {
		return fmt.Errorf("%w: post_limit must be between 1 and 100", common.ErrInvalidArgument)
	}
	if req.ScanIntervalMinutes != nil && *req.ScanIntervalMinutes < 1 {
		return fmt.Errorf("%w: scan_interval_minutes must be at least 1", common.ErrInvalidArgument)
	}
	if req.MaxConcurrentScans != nil && *req.MaxConcurrentScans < 1 {
		return fmt.Errorf("%w: max_concurrent_scans must be at least 1", common.ErrInvalidArgument)
	}
	if req.MinQualityScore != nil && (*req.MinQualityScore < 0 || *req.MinQualityScore > 100) {
		return fmt.Errorf("%w: min_quality_score must be between 0 and 100", common.ErrInvalidArgument)
	}
	return nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func stringsOr(v, fallback []string) pq.StringArray {
	if len(v) > 0 {
		return pq.StringArray(v)
	}
	return pq.StringArray(fallback)
}
