package repository

import (
	"context"
	"errors"
	"time"

	"stock-tracker/internal/entity"
	"stock-tracker/pkg/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockPriceRepository defines access to daily price bars.
type StockPriceRepository interface {
	UpsertBar(ctx context.Context, bar *entity.StockPrice) error
	ExistingDates(ctx context.Context, stockID uint, dates []time.Time) (map[time.Time]bool, error)
	FindByStockAndDate(ctx context.Context, stockID uint, date time.Time) (*entity.StockPrice, error)
	FindPriorBar(ctx context.Context, stockID uint, date time.Time) (*entity.StockPrice, error)
}

type stockPriceRepository struct {
	db *gorm.DB
}

func NewStockPriceRepository(db *gorm.DB) StockPriceRepository {
	return &stockPriceRepository{db: db}
}

// UpsertBar inserts a bar or refreshes the mutable fields on the
// existing (stock_id, date) row. The conflict clause keeps concurrent
// workers idempotent without a read-then-write race.
func (r *stockPriceRepository) UpsertBar(ctx context.Context, bar *entity.StockPrice) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stock_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open_price", "high_price", "low_price", "close_price", "adjusted_close", "volume",
		}),
	}).Create(bar).Error
	if err != nil {
		return apperror.Wrap(apperror.Persistence, err, "upsert price bar")
	}
	return nil
}

// ExistingDates reports which of the given dates already have a bar for
// the stock. Used for insert/update accounting only; the upsert itself
// never depends on this check.
func (r *stockPriceRepository) ExistingDates(ctx context.Context, stockID uint, dates []time.Time) (map[time.Time]bool, error) {
	existing := make(map[time.Time]bool, len(dates))
	if len(dates) == 0 {
		return existing, nil
	}

	var rows []entity.StockPrice
	err := r.db.WithContext(ctx).
		Select("date").
		Where("stock_id = ? AND date IN ?", stockID, dates).
		Find(&rows).Error
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "query existing bar dates")
	}
	for _, row := range rows {
		existing[row.Date.UTC()] = true
	}
	return existing, nil
}

func (r *stockPriceRepository) FindByStockAndDate(ctx context.Context, stockID uint, date time.Time) (*entity.StockPrice, error) {
	var bar entity.StockPrice
	err := r.db.WithContext(ctx).
		Where("stock_id = ? AND date = ?", stockID, date).
		First(&bar).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "find price bar")
	}
	return &bar, nil
}

// FindPriorBar returns the most recent bar strictly before date, or nil
// when the stock has no earlier history.
func (r *stockPriceRepository) FindPriorBar(ctx context.Context, stockID uint, date time.Time) (*entity.StockPrice, error) {
	var bar entity.StockPrice
	err := r.db.WithContext(ctx).
		Where("stock_id = ? AND date < ?", stockID, date).
		Order("date DESC").
		First(&bar).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "find prior price bar")
	}
	return &bar, nil
}
