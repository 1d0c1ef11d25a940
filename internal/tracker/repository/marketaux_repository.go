package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"stock-tracker/internal/tracker/config"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/logger"

	"golang.org/x/time/rate"
)

type marketauxRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

// NewMarketauxRepository creates a NewsProvider backed by the Marketaux
// news API.
func NewMarketauxRepository(cfg *config.Config, log *logger.Logger) NewsProvider {
	secondsPerRequest := time.Minute / time.Duration(cfg.Marketaux.MaxRequestPerMinute)
	return &marketauxRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

func (r *marketauxRepository) Name() string {
	return "marketaux"
}

func (r *marketauxRepository) FetchNews(ctx context.Context, symbol, companyName string, since time.Time, limit int) ([]dto.ProviderArticle, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("api_token", r.cfg.Marketaux.APIKey)
	query.Set("symbols", symbol)
	query.Set("published_after", since.UTC().Format("2006-01-02T15:04"))
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("language", "en")
	endpoint := fmt.Sprintf("%s/v1/news/all?%s", r.cfg.Marketaux.BaseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "create marketaux request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError("marketaux", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError("marketaux", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errResponse dto.MarketauxErrorResponse
		if json.Unmarshal(body, &errResponse) == nil && errResponse.Error.Message != "" {
			r.log.WarnContext(ctx, "Marketaux request rejected",
				logger.StringField("symbol", symbol),
				logger.StringField("code", errResponse.Error.Code),
				logger.StringField("message", errResponse.Error.Message),
			)
		}
		return nil, classifyHTTPStatus("marketaux", resp.StatusCode)
	}

	var response dto.MarketauxNewsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, apperror.Wrap(apperror.PermanentProvider, err, "decode marketaux response")
	}

	articles := make([]dto.ProviderArticle, 0, len(response.Data))
	for _, raw := range response.Data {
		publishedAt, err := time.Parse(time.RFC3339, raw.PublishedAt)
		if err != nil {
			r.log.WarnContext(ctx, "Skipping article with malformed timestamp",
				logger.StringField("symbol", symbol),
				logger.StringField("url", raw.URL),
			)
			continue
		}
		content := raw.Description
		if content == "" {
			content = raw.Snippet
		}
		articles = append(articles, dto.ProviderArticle{
			Title:       raw.Title,
			Content:     content,
			Source:      raw.Source,
			URL:         raw.URL,
			PublishedAt: publishedAt.UTC(),
		})
	}
	return articles, nil
}
