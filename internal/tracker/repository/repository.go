package repository

import (
	"context"
	"time"

	"stock-tracker/internal/tracker/dto"
)

// PriceProvider fetches market data for one symbol. Implementations are
// interchangeable and selected by configuration.
type PriceProvider interface {
	Name() string
	FetchDailyBars(ctx context.Context, symbol string) ([]dto.ProviderBar, error)
	FetchQuote(ctx context.Context, symbol string) (*dto.ProviderQuote, error)
	FetchCompanyProfile(ctx context.Context, symbol string) (*dto.CompanyProfile, error)
}

// NewsProvider fetches recent articles for one symbol.
type NewsProvider interface {
	Name() string
	FetchNews(ctx context.Context, symbol, companyName string, since time.Time, limit int) ([]dto.ProviderArticle, error)
}
