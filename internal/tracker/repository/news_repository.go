package repository

import (
	"context"
	"errors"

	"stock-tracker/internal/entity"
	"stock-tracker/pkg/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NewsRepository defines access to articles and their stock relations.
type NewsRepository interface {
	CreateIgnoreConflict(ctx context.Context, news *entity.FinancialNews) (bool, error)
	FindByURL(ctx context.Context, url string) (*entity.FinancialNews, error)
	UpdateSentimentLabel(ctx context.Context, newsID uint, label string) error
	LinkStock(ctx context.Context, relation *entity.StockNewsRelation) error
}

type newsRepository struct {
	db *gorm.DB
}

func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

// CreateIgnoreConflict inserts an article, treating an already-seen URL
// as an idempotent no-op. Returns whether a row was inserted.
func (r *newsRepository) CreateIgnoreConflict(ctx context.Context, news *entity.FinancialNews) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "url"}},
		DoNothing: true,
	}).Create(news)
	if res.Error != nil {
		return false, apperror.Wrap(apperror.Persistence, res.Error, "insert article")
	}
	return res.RowsAffected > 0, nil
}

func (r *newsRepository) FindByURL(ctx context.Context, url string) (*entity.FinancialNews, error) {
	var news entity.FinancialNews
	err := r.db.WithContext(ctx).Where("url = ?", url).First(&news).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "find article by url")
	}
	return &news, nil
}

func (r *newsRepository) UpdateSentimentLabel(ctx context.Context, newsID uint, label string) error {
	err := r.db.WithContext(ctx).Model(&entity.FinancialNews{}).
		Where("news_id = ?", newsID).
		Update("sentiment", label).Error
	if err != nil {
		return apperror.Wrap(apperror.Persistence, err, "update article sentiment label")
	}
	return nil
}

// LinkStock creates a stock-article relation, ignoring an existing pair.
func (r *newsRepository) LinkStock(ctx context.Context, relation *entity.StockNewsRelation) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stock_id"}, {Name: "news_id"}},
		DoNothing: true,
	}).Create(relation).Error
	if err != nil {
		return apperror.Wrap(apperror.Persistence, err, "link article to stock")
	}
	return nil
}
