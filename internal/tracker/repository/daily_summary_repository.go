package repository

import (
	"context"
	"database/sql"
	"time"

	"stock-tracker/internal/entity"
	"stock-tracker/pkg/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DailyNewsStats aggregates a stock's news activity for one date.
type DailyNewsStats struct {
	NewsCount        int
	AverageSentiment *float64
}

// DailySummaryRepository defines access to derived daily aggregates.
type DailySummaryRepository interface {
	Upsert(ctx context.Context, summary *entity.DailyStockSummary) error
	GetDailyNewsStats(ctx context.Context, stockID uint, date time.Time) (*DailyNewsStats, error)
	FindRecentBySymbol(ctx context.Context, symbol string, limit int) ([]entity.DailyStockSummary, error)
}

type dailySummaryRepository struct {
	db *gorm.DB
}

func NewDailySummaryRepository(db *gorm.DB) DailySummaryRepository {
	return &dailySummaryRepository{db: db}
}

// Upsert writes a recomputed summary over any existing (stock_id, date)
// row.
func (r *dailySummaryRepository) Upsert(ctx context.Context, summary *entity.DailyStockSummary) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stock_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price_change", "price_change_percent", "news_count",
			"average_sentiment", "volume_summary", "high_low_spread",
		}),
	}).Create(summary).Error
	if err != nil {
		return apperror.Wrap(apperror.Persistence, err, "upsert daily summary")
	}
	return nil
}

// GetDailyNewsStats counts related articles published on the given date
// and averages their sentiment scores across all models. The average is
// nil when no scored article exists.
func (r *dailySummaryRepository) GetDailyNewsStats(ctx context.Context, stockID uint, date time.Time) (*DailyNewsStats, error) {
	dayStart := date
	dayEnd := date.AddDate(0, 0, 1)

	var row struct {
		NewsCount        int
		AverageSentiment sql.NullFloat64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(DISTINCT fn.news_id) AS news_count,
			AVG(sa.sentiment_score)    AS average_sentiment
		FROM financial_news AS fn
		JOIN stock_news_relations AS snr ON snr.news_id = fn.news_id
		LEFT JOIN sentiment_analysis AS sa ON sa.news_id = fn.news_id
		WHERE snr.stock_id = ?
		AND fn.published_at >= ?
		AND fn.published_at < ?
	`, stockID, dayStart, dayEnd).Scan(&row).Error
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "aggregate daily news stats")
	}

	stats := &DailyNewsStats{NewsCount: row.NewsCount}
	if row.AverageSentiment.Valid {
		stats.AverageSentiment = &row.AverageSentiment.Float64
	}
	return stats, nil
}

func (r *dailySummaryRepository) FindRecentBySymbol(ctx context.Context, symbol string, limit int) ([]entity.DailyStockSummary, error) {
	var summaries []entity.DailyStockSummary
	err := r.db.WithContext(ctx).
		Joins("JOIN stocks ON stocks.stock_id = daily_stock_summary.stock_id").
		Where("stocks.symbol = ?", symbol).
		Order("daily_stock_summary.date DESC").
		Limit(limit).
		Find(&summaries).Error
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "list daily summaries")
	}
	return summaries, nil
}
