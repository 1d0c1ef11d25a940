package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stock-tracker/pkg/apperror"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Tracker.Symbols = []string{"AAPL"}
	cfg.Database.Host = "localhost"
	cfg.Database.DBName = "stock_tracker"
	cfg.Database.User = "postgres"
	cfg.applyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	assert.Equal(t, 15*time.Minute, cfg.Tracker.Interval)
	assert.Equal(t, 2, cfg.Tracker.MaxConcurrent)
	assert.Equal(t, 3, cfg.Tracker.Retry.MaxAttempts)
	assert.Equal(t, "yahoo", cfg.Providers.Price)
	assert.Equal(t, "rss", cfg.Providers.News)
	assert.Equal(t, []string{"lexicon", "pattern"}, cfg.Sentiment.Models)
	assert.Equal(t, "lexicon", cfg.Sentiment.PrimaryModel)
}

func TestApplyDefaultsNormalizesSymbols(t *testing.T) {
	cfg := &Config{}
	cfg.Tracker.Symbols = []string{" aapl", "Msft ", "GOOGL"}
	cfg.applyDefaults()

	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, cfg.Tracker.Symbols)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:   "valid defaults",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "missing symbols",
			mutate:  func(cfg *Config) { cfg.Tracker.Symbols = nil },
			wantErr: true,
		},
		{
			name:    "missing database host",
			mutate:  func(cfg *Config) { cfg.Database.Host = "" },
			wantErr: true,
		},
		{
			name:    "unknown price provider",
			mutate:  func(cfg *Config) { cfg.Providers.Price = "bloomberg" },
			wantErr: true,
		},
		{
			name:    "alphavantage without api key",
			mutate:  func(cfg *Config) { cfg.Providers.Price = "alphavantage" },
			wantErr: true,
		},
		{
			name: "alphavantage with api key",
			mutate: func(cfg *Config) {
				cfg.Providers.Price = "alphavantage"
				cfg.AlphaVantage.APIKey = "demo"
			},
		},
		{
			name:    "marketaux without api key",
			mutate:  func(cfg *Config) { cfg.Providers.News = "marketaux" },
			wantErr: true,
		},
		{
			name:    "primary model not configured",
			mutate:  func(cfg *Config) { cfg.Sentiment.PrimaryModel = "gemini" },
			wantErr: true,
		},
		{
			name: "gemini model without api key",
			mutate: func(cfg *Config) {
				cfg.Sentiment.Models = append(cfg.Sentiment.Models, "gemini")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, apperror.Configuration, apperror.CodeOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
