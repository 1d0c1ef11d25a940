package config

import (
	"slices"
	"strings"
	"time"

	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/config"
)

// Tracker holds the ETL cycle configuration.
type Tracker struct {
	Symbols             []string      `mapstructure:"symbols"`
	Interval            time.Duration `mapstructure:"interval"`
	MaxConcurrent       int           `mapstructure:"max_concurrent"`
	PriceRange          string        `mapstructure:"price_range"`
	NewsLookbackDays    int           `mapstructure:"news_lookback_days"`
	NewsLimit           int           `mapstructure:"news_limit"`
	MetadataRefreshCron string        `mapstructure:"metadata_refresh_cron"`
	Retry               Retry         `mapstructure:"retry"`
}

// Retry holds the retry/backoff policy for provider calls.
type Retry struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// Providers selects the price and news provider implementations.
type Providers struct {
	Price string `mapstructure:"price"`
	News  string `mapstructure:"news"`
}

// YahooFinance holds the configuration for the Yahoo Finance API.
type YahooFinance struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// AlphaVantage holds the configuration for the Alpha Vantage API.
type AlphaVantage struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Marketaux holds the configuration for the Marketaux news API.
type Marketaux struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// RSS holds the configuration for the RSS news provider.
type RSS struct {
	FeedURLTemplate     string `mapstructure:"feed_url_template"`
	FetchContent        bool   `mapstructure:"fetch_content"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Sentiment selects the scoring models. The primary model's label is
// denormalized onto each article.
type Sentiment struct {
	Models       []string `mapstructure:"models"`
	PrimaryModel string   `mapstructure:"primary_model"`
}

// Gemini holds the configuration for the Gemini sentiment model.
type Gemini struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// Telegram holds configuration for the optional failure notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the tracker.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	API          config.API      `mapstructure:"api"`
	Tracker      Tracker         `mapstructure:"tracker"`
	Providers    Providers       `mapstructure:"providers"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	AlphaVantage AlphaVantage    `mapstructure:"alpha_vantage"`
	Marketaux    Marketaux       `mapstructure:"marketaux"`
	RSS          RSS             `mapstructure:"rss"`
	Sentiment    Sentiment       `mapstructure:"sentiment"`
	Gemini       Gemini          `mapstructure:"gemini"`
	Telegram     Telegram        `mapstructure:"telegram"`
}

// Load loads the tracker configuration from the given path and applies
// defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for i, symbol := range c.Tracker.Symbols {
		c.Tracker.Symbols[i] = strings.ToUpper(strings.TrimSpace(symbol))
	}
	if c.Tracker.Interval <= 0 {
		c.Tracker.Interval = 15 * time.Minute
	}
	if c.Tracker.MaxConcurrent <= 0 {
		c.Tracker.MaxConcurrent = 2
	}
	if c.Tracker.PriceRange == "" {
		c.Tracker.PriceRange = "5d"
	}
	if c.Tracker.NewsLookbackDays <= 0 {
		c.Tracker.NewsLookbackDays = 3
	}
	if c.Tracker.NewsLimit <= 0 {
		c.Tracker.NewsLimit = 25
	}
	if c.Tracker.Retry.MaxAttempts <= 0 {
		c.Tracker.Retry.MaxAttempts = 3
	}
	if c.Tracker.Retry.InitialBackoff <= 0 {
		c.Tracker.Retry.InitialBackoff = 500 * time.Millisecond
	}
	if c.Tracker.Retry.MaxBackoff <= 0 {
		c.Tracker.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Providers.Price == "" {
		c.Providers.Price = "yahoo"
	}
	if c.Providers.News == "" {
		c.Providers.News = "rss"
	}
	if c.YahooFinance.BaseURL == "" {
		c.YahooFinance.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.YahooFinance.MaxRequestPerMinute <= 0 {
		c.YahooFinance.MaxRequestPerMinute = 30
	}
	if c.AlphaVantage.BaseURL == "" {
		c.AlphaVantage.BaseURL = "https://www.alphavantage.co"
	}
	if c.AlphaVantage.MaxRequestPerMinute <= 0 {
		c.AlphaVantage.MaxRequestPerMinute = 5
	}
	if c.Marketaux.BaseURL == "" {
		c.Marketaux.BaseURL = "https://api.marketaux.com"
	}
	if c.Marketaux.MaxRequestPerMinute <= 0 {
		c.Marketaux.MaxRequestPerMinute = 20
	}
	if c.RSS.FeedURLTemplate == "" {
		c.RSS.FeedURLTemplate = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"
	}
	if c.RSS.MaxRequestPerMinute <= 0 {
		c.RSS.MaxRequestPerMinute = 30
	}
	if len(c.Sentiment.Models) == 0 {
		c.Sentiment.Models = []string{"lexicon", "pattern"}
	}
	if c.Sentiment.PrimaryModel == "" {
		c.Sentiment.PrimaryModel = c.Sentiment.Models[0]
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}
}

// Validate checks for settings the process cannot start without.
func (c *Config) Validate() error {
	if len(c.Tracker.Symbols) == 0 {
		return apperror.New(apperror.Configuration, "tracker.symbols must not be empty")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return apperror.New(apperror.Configuration, "database host, name and user are required")
	}
	switch c.Providers.Price {
	case "yahoo":
	case "alphavantage":
		if c.AlphaVantage.APIKey == "" {
			return apperror.New(apperror.Configuration, "alpha_vantage.api_key is required for the alphavantage price provider")
		}
	default:
		return apperror.Newf(apperror.Configuration, "unknown price provider %q", c.Providers.Price)
	}
	switch c.Providers.News {
	case "rss":
	case "marketaux":
		if c.Marketaux.APIKey == "" {
			return apperror.New(apperror.Configuration, "marketaux.api_key is required for the marketaux news provider")
		}
	default:
		return apperror.Newf(apperror.Configuration, "unknown news provider %q", c.Providers.News)
	}
	if !slices.Contains(c.Sentiment.Models, c.Sentiment.PrimaryModel) {
		return apperror.Newf(apperror.Configuration, "sentiment.primary_model %q is not among the configured models", c.Sentiment.PrimaryModel)
	}
	if slices.Contains(c.Sentiment.Models, "gemini") && c.Gemini.APIKey == "" {
		return apperror.New(apperror.Configuration, "gemini.api_key is required when the gemini sentiment model is enabled")
	}
	return nil
}
