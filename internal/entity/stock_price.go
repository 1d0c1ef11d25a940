package entity

import (
	"time"
)

// StockPrice is one daily OHLCV bar. At most one bar exists per
// (stock, calendar date); re-ingesting the same date refreshes the
// mutable fields only.
type StockPrice struct {
	ID            uint      `gorm:"primaryKey;column:price_id" json:"price_id"`
	StockID       uint      `gorm:"not null;uniqueIndex:uq_stock_prices_stock_date;index:idx_stock_prices_stock_date_desc,sort:desc" json:"stock_id"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:uq_stock_prices_stock_date" json:"date"`
	OpenPrice     float64   `gorm:"type:numeric(10,2);not null" json:"open_price"`
	HighPrice     float64   `gorm:"type:numeric(10,2);not null" json:"high_price"`
	LowPrice      float64   `gorm:"type:numeric(10,2);not null" json:"low_price"`
	ClosePrice    float64   `gorm:"type:numeric(10,2);not null" json:"close_price"`
	AdjustedClose *float64  `gorm:"type:numeric(12,4)" json:"adjusted_close,omitempty"`
	Volume        int64     `gorm:"not null" json:"volume"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (StockPrice) TableName() string {
	return "stock_prices"
}
