package entity

import (
	"time"
)

// DailyStockSummary is the derived per-day aggregate for a stock,
// recomputed after price and news ingestion for that date. Nullable
// fields stay null when their inputs are missing: no prior bar means no
// price change, no scored news means no average sentiment.
type DailyStockSummary struct {
	ID                 uint      `gorm:"primaryKey;column:summary_id" json:"summary_id"`
	StockID            uint      `gorm:"not null;uniqueIndex:uq_daily_stock_summary_stock_date;index:idx_daily_stock_summary_stock_date_desc,sort:desc" json:"stock_id"`
	Date               time.Time `gorm:"type:date;not null;uniqueIndex:uq_daily_stock_summary_stock_date" json:"date"`
	PriceChange        *float64  `gorm:"type:numeric(12,4)" json:"price_change,omitempty"`
	PriceChangePercent *float64  `gorm:"type:numeric(8,4)" json:"price_change_percent,omitempty"`
	NewsCount          int       `gorm:"default:0" json:"news_count"`
	AverageSentiment   *float64  `gorm:"type:numeric(5,4)" json:"average_sentiment,omitempty"`
	VolumeSummary      int64     `json:"volume_summary"`
	HighLowSpread      *float64  `gorm:"type:numeric(12,4)" json:"high_low_spread,omitempty"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DailyStockSummary) TableName() string {
	return "daily_stock_summary"
}
