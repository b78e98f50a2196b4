package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang-signal-scryper/internal/entity"
	"golang-signal-scryper/pkg/common"
	"golang-signal-scryper/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AccountFilter narrows and pages an account listing.
type AccountFilter struct {
	Search    string
	IsActive  *bool
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// AccountSummary is the derived state written at the end of an account scan.
type AccountSummary struct {
	Stats          entity.AccountStats
	Rating         entity.QualityRating
	RecentMentions []entity.RecentMention
	MainTopics     []string
}

// AccountRepository defines the interface for monitored account data operations.
type AccountRepository interface {
	FindActive(ctx context.Context) ([]entity.Account, error)
	FindByHandle(ctx context.Context, handle string) (*entity.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]entity.Account, int64, error)
	Upsert(ctx context.Context, accounts []entity.Account) (inserted int, updated int, err error)
	EnsureActive(ctx context.Context, account *entity.Account) (*entity.Account, error)
	UpdateMonitoring(ctx context.Context, handle string, isActive *bool, frequency *entity.ScanFrequency) (*entity.Account, error)
	SetActiveBatch(ctx context.Context, handles []string, isActive bool) (int64, error)
	UpdateMetadata(ctx context.Context, handle string, tags []string, notes *string) (*entity.Account, error)
	UpdateSummary(ctx context.Context, handle string, summary AccountSummary) error
}

// NewAccountRepository creates a new GORM-based account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

type accountRepository struct {
	db *gorm.DB
}

var accountSortColumns = map[string]string{
	"quality_score":  "quality_score",
	"handle":         "handle",
	"followers":      "profile_followers_count",
	"last_scan_at":   "stats_last_scan_at",
	"high_quality":   "stats_high_quality_posts",
	"avg_engagement": "stats_avg_engagement",
	"created_at":     "created_at",
}

const defaultAccountPageSize = 50

func (r *accountRepository) FindActive(ctx context.Context) ([]entity.Account, error) {
	var accounts []entity.Account
	if err := r.db.WithContext(ctx).Where("monitoring_is_active = ?", true).Order("id asc").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// FindByHandle returns common.ErrAccountNotFound when the handle is unknown.
func (r *accountRepository) FindByHandle(ctx context.Context, handle string) (*entity.Account, error) {
	var account entity.Account
	result := r.db.WithContext(ctx).Where("handle = ?", handle).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, common.ErrAccountNotFound
		}
		return nil, result.Error
	}
	return &account, nil
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]entity.Account, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Account{})

	if filter.IsActive != nil {
		query = query.Where("monitoring_is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where(
			"LOWER(handle) LIKE ? OR LOWER(display_name) LIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE LOWER(t) LIKE ?)",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := accountSortColumns[filter.SortBy]
	if !ok {
		column = "quality_score"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAccountPageSize
	}

	var accounts []entity.Account
	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.SortOrder != "asc"}).
		Offset(filter.Offset).
		Limit(limit).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// Upsert inserts new handles inactive and refreshes the profile snapshot of existing ones.
// Monitoring state, ratings and stats of existing rows are left untouched.
func (r *accountRepository) Upsert(ctx context.Context, accounts []entity.Account) (int, int, error) {
	accounts = dedupeByHandle(accounts)
	if len(accounts) == 0 {
		return 0, 0, nil
	}

	handles := make([]string, 0, len(accounts))
	for _, a := range accounts {
		handles = append(handles, a.Handle)
	}

	var inserted, updated int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&entity.Account{}).Where("handle IN ?", handles).Count(&existing).Error; err != nil {
			return err
		}

		result := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "handle"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name",
				"profile_bio",
				"profile_followers_count",
				"profile_following_count",
				"profile_verified",
				"profile_profile_image_url",
				"updated_at",
			}),
		}).Create(&accounts)
		if result.Error != nil {
			return fmt.Errorf("upsert accounts: %w", result.Error)
		}

		updated = int(existing)
		inserted = len(accounts) - updated
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

// dedupeByHandle keeps one row per handle, in first-seen order, carrying the
// last snapshot seen. Postgres rejects an ON CONFLICT batch touching a row twice.
func dedupeByHandle(accounts []entity.Account) []entity.Account {
	index := make(map[string]int, len(accounts))
	out := make([]entity.Account, 0, len(accounts))
	for _, a := range accounts {
		if i, ok := index[a.Handle]; ok {
			out[i] = a
			continue
		}
		index[a.Handle] = len(out)
		out = append(out, a)
	}
	return out
}

// EnsureActive creates the account active, or activates an existing inactive one.
func (r *accountRepository) EnsureActive(ctx context.Context, account *entity.Account) (*entity.Account, error) {
	existing, err := r.FindByHandle(ctx, account.Handle)
	if err != nil && !errors.Is(err, common.ErrAccountNotFound) {
		return nil, err
	}

	if existing != nil {
		if existing.Monitoring.IsActive {
			return existing, nil
		}
		existing.Monitoring.IsActive = true
		if existing.Monitoring.AddedBy == "" {
			existing.Monitoring.AddedBy = entity.AddedByManual
		}
		if existing.Monitoring.AddedAt.IsZero() {
			existing.Monitoring.AddedAt = utils.TimeNow()
		}
		if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) UpdateMonitoring(ctx context.Context, handle string, isActive *bool, frequency *entity.ScanFrequency) (*entity.Account, error) {
	updates := map[string]interface{}{}
	if isActive != nil {
		updates["monitoring_is_active"] = *isActive
	}
	if frequency != nil {
		updates["monitoring_scan_frequency"] = *frequency
	}
	return r.updateByHandle(ctx, handle, updates)
}

func (r *accountRepository) SetActiveBatch(ctx context.Context, handles []string, isActive bool) (int64, error) {
	if len(handles) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("handle IN ?", handles).
		Updates(map[string]interface{}{"monitoring_is_active": isActive})
	return result.RowsAffected, result.Error
}

func (r *accountRepository) UpdateMetadata(ctx context.Context, handle string, tags []string, notes *string) (*entity.Account, error) {
	updates := map[string]interface{}{}
	if tags != nil {
		updates["tags"] = stringArray(tags)
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	return r.updateByHandle(ctx, handle, updates)
}

// UpdateSummary overwrites the derived rating, stats, mentions and topics of one account.
func (r *accountRepository) UpdateSummary(ctx context.Context, handle string, summary AccountSummary) error {
	result := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("handle = ?", handle).
		Updates(map[string]interface{}{
			"quality_score":              summary.Rating.Score,
			"quality_accuracy":           summary.Rating.Accuracy,
			"quality_influence":          summary.Rating.Influence,
			"quality_timeliness":         summary.Rating.Timeliness,
			"quality_last_updated":       summary.Rating.LastUpdated,
			"stats_total_posts_analyzed": summary.Stats.TotalPostsAnalyzed,
			"stats_high_quality_posts":   summary.Stats.HighQualityPosts,
			"stats_avg_engagement":       summary.Stats.AvgEngagement,
			"stats_last_scan_at":         summary.Stats.LastScanAt,
			"recent_mentions":            mentionsJSON(summary.RecentMentions),
			"main_topics":                stringArray(summary.MainTopics),
		})
	if result.Error != nil {
		return fmt.Errorf("update summary for %s: %w", handle, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) updateByHandle(ctx context.Context, handle string, updates map[string]interface{}) (*entity.Account, error) {
	if len(updates) > 0 {
		result := r.db.WithContext(ctx).Model(&entity.Account{}).Where("handle = ?", handle).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, common.ErrAccountNotFound
		}
	}
	return r.FindByHandle(ctx, handle)
}
