package repository

import (
	"context"

	"stock-tracker/internal/entity"
	"stock-tracker/pkg/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockTickRepository defines append-only access to intraday ticks.
type StockTickRepository interface {
	CreateIgnoreConflict(ctx context.Context, tick *entity.StockTick) (bool, error)
}

type stockTickRepository struct {
	db *gorm.DB
}

func NewStockTickRepository(db *gorm.DB) StockTickRepository {
	return &stockTickRepository{db: db}
}

// CreateIgnoreConflict inserts a tick, treating a duplicate
// (stock_id, tick_id) as a no-op. Returns whether a row was inserted.
func (r *stockTickRepository) CreateIgnoreConflict(ctx context.Context, tick *entity.StockTick) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_id"}, {Name: "tick_id"}},
		DoNothing: true,
	}).Create(tick)
	if res.Error != nil {
		return false, apperror.Wrap(apperror.Persistence, res.Error, "insert tick")
	}
	return res.RowsAffected > 0, nil
}
