package entity

import (
	"time"
)

// SentimentAnalysis is one model's score for one article. The
// (article, model) composite key lets several models score the same
// article independently and re-score without overwrite conflicts.
type SentimentAnalysis struct {
	ID              uint      `gorm:"primaryKey;column:sentiment_id" json:"sentiment_id"`
	NewsID          uint      `gorm:"not null;uniqueIndex:uq_sentiment_analysis_news_model" json:"news_id"`
	SentimentScore  float64   `gorm:"type:numeric(5,4);not null" json:"sentiment_score"`
	SentimentLabel  string    `gorm:"type:varchar(20);not null" json:"sentiment_label"`
	ConfidenceScore float64   `gorm:"type:numeric(5,4);not null" json:"confidence_score"`
	AnalysisModel   string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_sentiment_analysis_news_model" json:"analysis_model"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (SentimentAnalysis) TableName() string {
	return "sentiment_analysis"
}
