package repository

import (
	"context"
	"errors"

	"golang-signal-scryper/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScanConfigRepository defines the interface for the stored scan config.
type ScanConfigRepository interface {
	// GetOrCreate returns the named config, inserting defaults when it does not exist.
	GetOrCreate(ctx context.Context, defaults entity.ScanConfig) (*entity.ScanConfig, error)
	Save(ctx context.Context, cfg *entity.ScanConfig) error
}

// NewScanConfigRepository creates a new GORM-based scan config repository.
func NewScanConfigRepository(db *gorm.DB) ScanConfigRepository {
	return &scanConfigRepository{db: db}
}

type scanConfigRepository struct {
	db *gorm.DB
}

func (r *scanConfigRepository) GetOrCreate(ctx context.Context, defaults entity.ScanConfig) (*entity.ScanConfig, error) {
	var cfg entity.ScanConfig
	err := r.db.WithContext(ctx).Where("name = ?", defaults.Name).First(&cfg).Error
	if err == nil {
		return &cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Two processes may race on first boot; the loser re-reads the winner's row.
	created := defaults
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&created).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("name = ?", defaults.Name).First(&cfg).Error; err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *scanConfigRepository) Save(ctx context.Context, cfg *entity.ScanConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}
