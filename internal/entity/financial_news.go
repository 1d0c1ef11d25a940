package entity

import (
	"time"
)

// FinancialNews is a persisted news article, unique by source URL.
// Sentiment holds the denormalized label from the primary scoring model.
type FinancialNews struct {
	ID          uint      `gorm:"primaryKey;column:news_id" json:"news_id"`
	NewsSource  string    `gorm:"type:varchar(255)" json:"news_source"`
	Company     string    `gorm:"type:varchar(255)" json:"company"`
	Symbol      string    `gorm:"type:varchar(10)" json:"symbol"`
	Sentiment   string    `gorm:"type:varchar(20)" json:"sentiment"`
	Title       string    `gorm:"type:varchar(500);not null" json:"title"`
	Content     string    `gorm:"type:text" json:"content"`
	Author      *string   `gorm:"type:varchar(255)" json:"author,omitempty"`
	PublishedAt time.Time `gorm:"not null;index:idx_financial_news_published_desc,sort:desc" json:"published_at"`
	URL         string    `gorm:"type:varchar(1000);uniqueIndex" json:"url"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Relations  []StockNewsRelation `gorm:"foreignKey:NewsID;constraint:OnDelete:CASCADE" json:"-"`
	Sentiments []SentimentAnalysis `gorm:"foreignKey:NewsID;constraint:OnDelete:CASCADE" json:"-"`
}

func (FinancialNews) TableName() string {
	return "financial_news"
}

// StockNewsRelation links an article to a stock it mentions, with a
// relevance score in [0,1]. Unique per (stock, article) pair.
type StockNewsRelation struct {
	ID             uint      `gorm:"primaryKey;column:relation_id" json:"relation_id"`
	StockID        uint      `gorm:"not null;uniqueIndex:uq_stock_news_relations_pair" json:"stock_id"`
	NewsID         uint      `gorm:"not null;uniqueIndex:uq_stock_news_relations_pair" json:"news_id"`
	RelevanceScore float64   `gorm:"type:numeric(3,2);default:0.50" json:"relevance_score"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (StockNewsRelation) TableName() string {
	return "stock_news_relations"
}
