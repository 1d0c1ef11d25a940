package repository

import (
	"context"
	"errors"

	"stock-tracker/internal/entity"
	"stock-tracker/pkg/apperror"

	"gorm.io/gorm"
)

// CycleHistoryRepository defines access to persisted cycle runs.
type CycleHistoryRepository interface {
	Create(ctx context.Context, history *entity.ETLCycleHistory) error
	Update(ctx context.Context, history *entity.ETLCycleHistory) error
	FindLatest(ctx context.Context) (*entity.ETLCycleHistory, error)
	FindRecent(ctx context.Context, limit int) ([]entity.ETLCycleHistory, error)
}

type cycleHistoryRepository struct {
	db *gorm.DB
}

func NewCycleHistoryRepository(db *gorm.DB) CycleHistoryRepository {
	return &cycleHistoryRepository{db: db}
}

func (r *cycleHistoryRepository) Create(ctx context.Context, history *entity.ETLCycleHistory) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return apperror.Wrap(apperror.Persistence, err, "create cycle history")
	}
	return nil
}

func (r *cycleHistoryRepository) Update(ctx context.Context, history *entity.ETLCycleHistory) error {
	if err := r.db.WithContext(ctx).Save(history).Error; err != nil {
		return apperror.Wrap(apperror.Persistence, err, "update cycle history")
	}
	return nil
}

func (r *cycleHistoryRepository) FindLatest(ctx context.Context) (*entity.ETLCycleHistory, error) {
	var history entity.ETLCycleHistory
	err := r.db.WithContext(ctx).Order("started_at DESC").First(&history).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "find latest cycle")
	}
	return &history, nil
}

func (r *cycleHistoryRepository) FindRecent(ctx context.Context, limit int) ([]entity.ETLCycleHistory, error) {
	var histories []entity.ETLCycleHistory
	err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&histories).Error
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "list recent cycles")
	}
	return histories, nil
}
