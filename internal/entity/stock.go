package entity

import (
	"time"
)

// Stock is a tracked instrument. Rows are created on first sighting of a
// symbol and soft-deactivated via IsActive, never hard-deleted.
type Stock struct {
	ID          uint      `gorm:"primaryKey;column:stock_id" json:"stock_id"`
	Symbol      string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"symbol"`
	CompanyName string    `gorm:"type:varchar(255);not null" json:"company_name"`
	Sector      string    `gorm:"type:varchar(100)" json:"sector"`
	MarketCap   int64     `json:"market_cap"`
	Exchange    string    `gorm:"type:varchar(50)" json:"exchange"`
	Currency    string    `gorm:"type:varchar(3);default:USD" json:"currency"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Prices    []StockPrice        `gorm:"foreignKey:StockID;constraint:OnDelete:CASCADE" json:"-"`
	Ticks     []StockTick         `gorm:"foreignKey:StockID;constraint:OnDelete:CASCADE" json:"-"`
	Relations []StockNewsRelation `gorm:"foreignKey:StockID;constraint:OnDelete:CASCADE" json:"-"`
	Summaries []DailyStockSummary `gorm:"foreignKey:StockID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Stock) TableName() string {
	return "stocks"
}
