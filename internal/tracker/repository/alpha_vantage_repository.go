package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"stock-tracker/internal/tracker/config"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/logger"

	"golang.org/x/time/rate"
)

const alphaVantageDateLayout = "2006-01-02"

type alphaVantageRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewAlphaVantageRepository creates a PriceProvider backed by the Alpha
// Vantage query API.
func NewAlphaVantageRepository(cfg *config.Config, log *logger.Logger) PriceProvider {
	secondsPerRequest := time.Minute / time.Duration(cfg.AlphaVantage.MaxRequestPerMinute)
	return &alphaVantageRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *alphaVantageRepository) Name() string {
	return "alphavantage"
}

func (r *alphaVantageRepository) FetchDailyBars(ctx context.Context, symbol string) ([]dto.ProviderBar, error) {
	body, err := r.sendRequest(ctx, "TIME_SERIES_DAILY_ADJUSTED", symbol, "outputsize=compact")
	if err != nil {
		return nil, err
	}

	var response dto.AlphaVantageDailyResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "decode alpha vantage daily response")
	}
	if err := alphaVantageBodyError(symbol, response.ErrorMessage, response.Note, response.Information); err != nil {
		return nil, err
	}
	if len(response.TimeSeries) == 0 {
		return nil, apperror.Newf(apperror.PermanentProvider, "alpha vantage returned no series for %s", symbol)
	}

	bars := make([]dto.ProviderBar, 0, len(response.TimeSeries))
	for dateStr, entry := range response.TimeSeries {
		date, err := time.ParseInLocation(alphaVantageDateLayout, dateStr, time.UTC)
		if err != nil {
			r.log.WarnContext(ctx, "Skipping bar with malformed date",
				logger.StringField("symbol", symbol),
				logger.StringField("date", dateStr),
			)
			continue
		}
		bar, err := parseAlphaVantageEntry(symbol, date, entry)
		if err != nil {
			r.log.WarnContext(ctx, "Skipping malformed bar",
				logger.StringField("symbol", symbol),
				logger.StringField("date", dateStr),
				logger.ErrorField(err),
			)
			continue
		}
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return bars, nil
}

func (r *alphaVantageRepository) FetchQuote(ctx context.Context, symbol string) (*dto.ProviderQuote, error) {
	body, err := r.sendRequest(ctx, "GLOBAL_QUOTE", symbol, "")
	if err != nil {
		return nil, err
	}

	var response dto.AlphaVantageQuoteResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "decode alpha vantage quote response")
	}
	if err := alphaVantageBodyError(symbol, response.ErrorMessage, response.Note, response.Information); err != nil {
		return nil, err
	}

	quote := response.GlobalQuote
	if quote.Price == "" {
		return nil, apperror.Newf(apperror.PermanentProvider, "alpha vantage returned no quote for %s", symbol)
	}
	price, err := strconv.ParseFloat(quote.Price, 64)
	if err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "parse alpha vantage quote price")
	}
	volume, _ := strconv.ParseInt(quote.Volume, 10, 64)

	timestamp := time.Now().UTC()
	if day, err := time.ParseInLocation(alphaVantageDateLayout, quote.LatestTradingDay, time.UTC); err == nil {
		timestamp = day
	}

	return &dto.ProviderQuote{
		Symbol: symbol,
		// day + price identify a quote event; identical re-fetches dedupe away
		TickID:    fmt.Sprintf("av-%s-%s", quote.LatestTradingDay, quote.Price),
		Timestamp: timestamp,
		Price:     price,
		Volume:    volume,
	}, nil
}

func (r *alphaVantageRepository) FetchCompanyProfile(ctx context.Context, symbol string) (*dto.CompanyProfile, error) {
	body, err := r.sendRequest(ctx, "OVERVIEW", symbol, "")
	if err != nil {
		return nil, err
	}

	var response dto.AlphaVantageOverviewResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "decode alpha vantage overview response")
	}
	if err := alphaVantageBodyError(symbol, response.ErrorMessage, response.Note, response.Information); err != nil {
		return nil, err
	}
	if response.Name == "" {
		return nil, apperror.Newf(apperror.PermanentProvider, "alpha vantage returned no overview for %s", symbol)
	}

	marketCap, _ := strconv.ParseInt(response.MarketCapitalization, 10, 64)
	return &dto.CompanyProfile{
		Symbol:      symbol,
		CompanyName: response.Name,
		Sector:      response.Sector,
		MarketCap:   marketCap,
		Exchange:    response.Exchange,
		Currency:    response.Currency,
	}, nil
}

func (r *alphaVantageRepository) sendRequest(ctx context.Context, function, symbol, extra string) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/query?function=%s&symbol=%s&apikey=%s",
		r.cfg.AlphaVantage.BaseURL, function, url.QueryEscape(symbol), url.QueryEscape(r.cfg.AlphaVantage.APIKey))
	if extra != "" {
		endpoint += "&" + extra
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "create alpha vantage request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("alpha vantage", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPStatus("alpha vantage", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError("alpha vantage", err)
	}
	return body, nil
}

// alphaVantageBodyError maps Alpha Vantage's HTTP-200 error envelopes.
// Note and Information mean the per-minute quota is spent, which is
// retryable; Error Message means a bad symbol or request, which is not.
func alphaVantageBodyError(symbol, errorMessage, note, information string) error {
	if errorMessage != "" {
		return apperror.Newf(apperror.PermanentProvider, "alpha vantage rejected %s: %s", symbol, errorMessage)
	}
	if note != "" {
		return apperror.Newf(apperror.TransientProvider, "alpha vantage rate limited: %s", note)
	}
	if information != "" {
		return apperror.Newf(apperror.TransientProvider, "alpha vantage rate limited: %s", information)
	}
	return nil
}

func parseAlphaVantageEntry(symbol string, date time.Time, entry dto.AlphaVantageDailyEntry) (dto.ProviderBar, error) {
	open, err := strconv.ParseFloat(entry.Open, 64)
	if err != nil {
		return dto.ProviderBar{}, fmt.Errorf("parse open: %w", err)
	}
	high, err := strconv.ParseFloat(entry.High, 64)
	if err != nil {
		return dto.ProviderBar{}, fmt.Errorf("parse high: %w", err)
	}
	low, err := strconv.ParseFloat(entry.Low, 64)
	if err != nil {
		return dto.ProviderBar{}, fmt.Errorf("parse low: %w", err)
	}
	closePrice, err := strconv.ParseFloat(entry.Close, 64)
	if err != nil {
		return dto.ProviderBar{}, fmt.Errorf("parse close: %w", err)
	}
	volume, err := strconv.ParseInt(entry.Volume, 10, 64)
	if err != nil {
		return dto.ProviderBar{}, fmt.Errorf("parse volume: %w", err)
	}

	bar := dto.ProviderBar{
		Symbol: symbol,
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}
	if adj, err := strconv.ParseFloat(entry.AdjustedClose, 64); err == nil {
		bar.AdjustedClose = &adj
	}
	return bar, nil
}
