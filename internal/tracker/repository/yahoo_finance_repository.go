package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stock-tracker/internal/tracker/config"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/logger"

	"golang.org/x/time/rate"
)

type yahooFinanceRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewYahooFinanceRepository creates a PriceProvider backed by the Yahoo
// Finance chart and quoteSummary APIs.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) PriceProvider {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *yahooFinanceRepository) Name() string {
	return "yahoo"
}

func (r *yahooFinanceRepository) FetchDailyBars(ctx context.Context, symbol string) ([]dto.ProviderBar, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d&events=div%%2Csplit",
		r.cfg.YahooFinance.BaseURL, url.PathEscape(symbol), url.QueryEscape(r.cfg.Tracker.PriceRange))

	result, err := r.fetchChart(ctx, symbol, endpoint)
	if err != nil {
		return nil, err
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, apperror.Newf(apperror.PermanentProvider, "yahoo returned no quote data for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]dto.ProviderBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// the quote arrays are not guaranteed to line up with each other
		// or with the timestamps
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			continue
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil || quote.Close[i] == nil {
			continue
		}
		bar := dto.ProviderBar{
			Symbol: symbol,
			Date:   time.Unix(ts, 0).UTC(),
			Open:   *quote.Open[i],
			High:   *quote.High[i],
			Low:    *quote.Low[i],
			Close:  *quote.Close[i],
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		if i < len(adjCloses) && adjCloses[i] != nil {
			bar.AdjustedClose = adjCloses[i]
		}
		bars = append(bars, bar)
	}

	r.log.DebugContext(ctx, "Yahoo daily bars fetched",
		logger.StringField("symbol", symbol),
		logger.IntField("bars", len(bars)),
	)
	return bars, nil
}

func (r *yahooFinanceRepository) FetchQuote(ctx context.Context, symbol string) (*dto.ProviderQuote, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1m",
		r.cfg.YahooFinance.BaseURL, url.PathEscape(symbol))

	result, err := r.fetchChart(ctx, symbol, endpoint)
	if err != nil {
		return nil, err
	}

	meta := result.Meta
	if meta.RegularMarketPrice <= 0 {
		return nil, apperror.Newf(apperror.PermanentProvider, "yahoo returned no market price for %s", symbol)
	}

	return &dto.ProviderQuote{
		Symbol: symbol,
		// the market time makes re-fetching the same quote a dedupe no-op
		TickID:    fmt.Sprintf("yahoo-%d", meta.RegularMarketTime),
		Timestamp: time.Unix(meta.RegularMarketTime, 0).UTC(),
		Price:     meta.RegularMarketPrice,
		Volume:    meta.RegularMarketVolume,
	}, nil
}

func (r *yahooFinanceRepository) FetchCompanyProfile(ctx context.Context, symbol string) (*dto.CompanyProfile, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=assetProfile%%2Cprice",
		r.cfg.YahooFinance.BaseURL, url.PathEscape(symbol))

	body, err := r.sendRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var response dto.YahooQuoteSummaryResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "decode yahoo quoteSummary response")
	}
	if response.QuoteSummary.Error != nil {
		return nil, apperror.Newf(apperror.PermanentProvider, "yahoo quoteSummary error for %s: %s",
			symbol, response.QuoteSummary.Error.Description)
	}
	if len(response.QuoteSummary.Result) == 0 {
		return nil, apperror.Newf(apperror.PermanentProvider, "yahoo returned no profile for %s", symbol)
	}

	result := response.QuoteSummary.Result[0]
	profile := &dto.CompanyProfile{Symbol: symbol}
	if result.Price != nil {
		profile.CompanyName = result.Price.LongName
		if profile.CompanyName == "" {
			profile.CompanyName = result.Price.ShortName
		}
		profile.Exchange = result.Price.ExchangeName
		profile.Currency = result.Price.Currency
		profile.MarketCap = result.Price.MarketCap.Raw
	}
	if result.AssetProfile != nil {
		profile.Sector = result.AssetProfile.Sector
	}
	return profile, nil
}

func (r *yahooFinanceRepository) fetchChart(ctx context.Context, symbol, endpoint string) (*dto.YahooChartResult, error) {
	body, err := r.sendRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var response dto.YahooChartResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "decode yahoo chart response")
	}
	if response.Chart.Error != nil {
		desc := response.Chart.Error.Description
		if strings.Contains(strings.ToLower(desc), "no data found") {
			return nil, apperror.Newf(apperror.PermanentProvider, "yahoo: unknown symbol %s: %s", symbol, desc)
		}
		return nil, apperror.Newf(apperror.PermanentProvider, "yahoo chart error for %s: %s", symbol, desc)
	}
	if len(response.Chart.Result) == 0 {
		return nil, apperror.Newf(apperror.PermanentProvider, "yahoo returned no chart result for %s", symbol)
	}
	return &response.Chart.Result[0], nil
}

func (r *yahooFinanceRepository) sendRequest(ctx context.Context, endpoint string) ([]byte, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "create yahoo request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("yahoo", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPStatus("yahoo", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError("yahoo", err)
	}
	return body, nil
}
