package service

import (
	"testing"
	"time"

	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBar() dto.ProviderBar {
	return dto.ProviderBar{
		Symbol: "AAPL",
		Date:   time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
		Open:   10, High: 12, Low: 9, Close: 11,
		Volume: 1000,
	}
}

func TestValidateBar(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.ProviderBar)
		valid  bool
	}{
		{name: "valid bar", mutate: func(*dto.ProviderBar) {}, valid: true},
		{name: "empty symbol", mutate: func(b *dto.ProviderBar) { b.Symbol = " " }},
		{name: "zero date", mutate: func(b *dto.ProviderBar) { b.Date = time.Time{} }},
		{name: "zero close", mutate: func(b *dto.ProviderBar) { b.Close = 0 }},
		{name: "negative open", mutate: func(b *dto.ProviderBar) { b.Open = -1 }},
		{name: "high below low", mutate: func(b *dto.ProviderBar) { b.High = 8 }},
		{name: "high below close", mutate: func(b *dto.ProviderBar) { b.Close = 13 }},
		{name: "low above open", mutate: func(b *dto.ProviderBar) { b.Low = 11; b.Open = 10 }},
		{name: "negative volume", mutate: func(b *dto.ProviderBar) { b.Volume = -1 }},
		{name: "zero volume ok", mutate: func(b *dto.ProviderBar) { b.Volume = 0 }, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := validBar()
			tt.mutate(&bar)
			err := ValidateBar(&bar)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, apperror.IsValidation(err))
			}
		})
	}
}

func TestValidateQuote(t *testing.T) {
	valid := dto.ProviderQuote{
		Symbol: "AAPL", TickID: "t1",
		Timestamp: time.Now(), Price: 10, Volume: 1,
	}
	assert.NoError(t, ValidateQuote(&valid))

	noTick := valid
	noTick.TickID = ""
	assert.True(t, apperror.IsValidation(ValidateQuote(&noTick)))

	freePrice := valid
	freePrice.Price = 0
	assert.True(t, apperror.IsValidation(ValidateQuote(&freePrice)))
}

func TestValidateArticle(t *testing.T) {
	valid := dto.ProviderArticle{
		Title: "headline", URL: "https://example.com/a",
		PublishedAt: time.Now(),
	}
	assert.NoError(t, ValidateArticle(&valid))

	noURL := valid
	noURL.URL = ""
	assert.True(t, apperror.IsValidation(ValidateArticle(&noURL)))

	noTitle := valid
	noTitle.Title = "  "
	assert.True(t, apperror.IsValidation(ValidateArticle(&noTitle)))

	noTime := valid
	noTime.PublishedAt = time.Time{}
	assert.True(t, apperror.IsValidation(ValidateArticle(&noTime)))
}
