package repository

import (
	"context"
	"errors"

	"stock-tracker/internal/entity"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StocksRepository defines write and lookup access to the stocks table.
type StocksRepository interface {
	GetActive(ctx context.Context) ([]entity.Stock, error)
	FindBySymbol(ctx context.Context, symbol string) (*entity.Stock, error)
	EnsureStock(ctx context.Context, symbol string) (*entity.Stock, bool, error)
	UpdateProfile(ctx context.Context, stockID uint, profile *dto.CompanyProfile) error
	Deactivate(ctx context.Context, symbol string) error
}

type stocksRepository struct {
	db *gorm.DB
}

func NewStocksRepository(db *gorm.DB) StocksRepository {
	return &stocksRepository{db: db}
}

func (r *stocksRepository) GetActive(ctx context.Context) ([]entity.Stock, error) {
	var stocks []entity.Stock
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Find(&stocks).Error; err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "list active stocks")
	}
	return stocks, nil
}

func (r *stocksRepository) FindBySymbol(ctx context.Context, symbol string) (*entity.Stock, error) {
	var stock entity.Stock
	err := r.db.WithContext(ctx).Where("symbol = ?", symbol).First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, err, "find stock by symbol")
	}
	return &stock, nil
}

// EnsureStock inserts a stock on first sighting of a symbol. The company
// name starts as the symbol itself until a profile refresh fills it in.
// Returns the row and whether it was created by this call.
func (r *stocksRepository) EnsureStock(ctx context.Context, symbol string) (*entity.Stock, bool, error) {
	stock := entity.Stock{
		Symbol:      symbol,
		CompanyName: symbol,
		IsActive:    true,
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoNothing: true,
	}).Create(&stock)
	if res.Error != nil {
		return nil, false, apperror.Wrap(apperror.Persistence, res.Error, "ensure stock")
	}

	created := res.RowsAffected > 0
	if !created {
		existing, err := r.FindBySymbol(ctx, symbol)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return &stock, true, nil
}

func (r *stocksRepository) UpdateProfile(ctx context.Context, stockID uint, profile *dto.CompanyProfile) error {
	updates := map[string]interface{}{}
	if profile.CompanyName != "" {
		updates["company_name"] = profile.CompanyName
	}
	if profile.Sector != "" {
		updates["sector"] = profile.Sector
	}
	if profile.MarketCap > 0 {
		updates["market_cap"] = profile.MarketCap
	}
	if profile.Exchange != "" {
		updates["exchange"] = profile.Exchange
	}
	if profile.Currency != "" {
		updates["currency"] = profile.Currency
	}
	if len(updates) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&entity.Stock{}).Where("stock_id = ?", stockID).Updates(updates).Error
	if err != nil {
		return apperror.Wrap(apperror.Persistence, err, "update stock profile")
	}
	return nil
}

// Deactivate soft-deletes a stock. Rows are never hard-deleted.
func (r *stocksRepository) Deactivate(ctx context.Context, symbol string) error {
	err := r.db.WithContext(ctx).Model(&entity.Stock{}).
		Where("symbol = ?", symbol).
		Update("is_active", false).Error
	if err != nil {
		return apperror.Wrap(apperror.Persistence, err, "deactivate stock")
	}
	return nil
}
