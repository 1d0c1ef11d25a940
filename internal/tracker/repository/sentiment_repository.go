package repository

import (
	"context"

	"stock-tracker/internal/entity"
	"stock-tracker/pkg/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SentimentRepository defines access to per-model sentiment rows.
type SentimentRepository interface {
	Upsert(ctx context.Context, analysis *entity.SentimentAnalysis) error
}

type sentimentRepository struct {
	db *gorm.DB
}

func NewSentimentRepository(db *gorm.DB) SentimentRepository {
	return &sentimentRepository{db: db}
}

// Upsert stores one model's score for one article. Re-scoring the same
// (article, model) pair replaces the previous result instead of
// conflicting.
func (r *sentimentRepository) Upsert(ctx context.Context, analysis *entity.SentimentAnalysis) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "news_id"}, {Name: "analysis_model"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sentiment_score", "sentiment_label", "confidence_score",
		}),
	}).Create(analysis).Error
	if err != nil {
		return apperror.Wrap(apperror.Persistence, err, "upsert sentiment analysis")
	}
	return nil
}
