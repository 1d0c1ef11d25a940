package entity

import (
	"time"
)

// StockTick is a single intraday quote snapshot. Append-only,
// deduplicated by the provider-supplied tick id per stock.
type StockTick struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StockID   uint      `gorm:"not null;uniqueIndex:uq_stock_ticks_stock_tick;index:idx_stock_ticks_stock_ts_desc,sort:desc" json:"stock_id"`
	TickID    string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_stock_ticks_stock_tick" json:"tick_id"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
	Price     float64   `gorm:"type:numeric(12,4);not null" json:"price"`
	Volume    int64     `gorm:"not null" json:"volume"`
	BidPrice  *float64  `gorm:"type:numeric(12,4)" json:"bid_price,omitempty"`
	AskPrice  *float64  `gorm:"type:numeric(12,4)" json:"ask_price,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (StockTick) TableName() string {
	return "stock_ticks"
}
