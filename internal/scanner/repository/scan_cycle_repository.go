package repository

import (
	"context"

	"golang-signal-scryper/internal/entity"

	"gorm.io/gorm"
)

// ScanCycleRepository defines the interface for scan cycle history.
type ScanCycleRepository interface {
	Create(ctx context.Context, cycle *entity.ScanCycle) error
	Update(ctx context.Context, cycle *entity.ScanCycle) error
	FindRecent(ctx context.Context, limit int) ([]entity.ScanCycle, error)
}

// NewScanCycleRepository creates a new GORM-based scan cycle repository.
func NewScanCycleRepository(db *gorm.DB) ScanCycleRepository {
	return &scanCycleRepository{db: db}
}

type scanCycleRepository struct {
	db *gorm.DB
}

func (r *scanCycleRepository) Create(ctx context.Context, cycle *entity.ScanCycle) error {
	return r.db.WithContext(ctx).Create(cycle).Error
}

func (r *scanCycleRepository) Update(ctx context.Context, cycle *entity.ScanCycle) error {
	return r.db.WithContext(ctx).Updates(cycle).Error
}

// FindRecent returns the newest cycles first.
func (r *scanCycleRepository) FindRecent(ctx context.Context, limit int) ([]entity.ScanCycle, error) {
	if limit <= 0 {
		limit = 20
	}
	var cycles []entity.ScanCycle
	if err := r.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}
