package service

import (
	"strings"

	"stock-tracker/internal/tracker/dto"
	"stock-tracker/pkg/apperror"
)

// ValidateBar sanity-checks a provider bar before persistence. A
// rejected bar is skipped, never stored partially.
func ValidateBar(bar *dto.ProviderBar) error {
	if strings.TrimSpace(bar.Symbol) == "" {
		return apperror.New(apperror.Validation, "bar has empty symbol")
	}
	if bar.Date.IsZero() {
		return apperror.New(apperror.Validation, "bar has zero date")
	}
	if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
		return apperror.Newf(apperror.Validation, "bar for %s on %s has non-positive price",
			bar.Symbol, bar.Date.Format("2006-01-02"))
	}
	if bar.High < bar.Low {
		return apperror.Newf(apperror.Validation, "bar for %s on %s has high below low",
			bar.Symbol, bar.Date.Format("2006-01-02"))
	}
	if bar.High < bar.Open || bar.High < bar.Close {
		return apperror.Newf(apperror.Validation, "bar for %s on %s has high below open or close",
			bar.Symbol, bar.Date.Format("2006-01-02"))
	}
	if bar.Low > bar.Open || bar.Low > bar.Close {
		return apperror.Newf(apperror.Validation, "bar for %s on %s has low above open or close",
			bar.Symbol, bar.Date.Format("2006-01-02"))
	}
	if bar.Volume < 0 {
		return apperror.Newf(apperror.Validation, "bar for %s on %s has negative volume",
			bar.Symbol, bar.Date.Format("2006-01-02"))
	}
	return nil
}

// ValidateQuote sanity-checks a quote snapshot before tick persistence.
func ValidateQuote(quote *dto.ProviderQuote) error {
	if strings.TrimSpace(quote.Symbol) == "" {
		return apperror.New(apperror.Validation, "quote has empty symbol")
	}
	if quote.TickID == "" {
		return apperror.Newf(apperror.Validation, "quote for %s has empty tick id", quote.Symbol)
	}
	if quote.Timestamp.IsZero() {
		return apperror.Newf(apperror.Validation, "quote for %s has zero timestamp", quote.Symbol)
	}
	if quote.Price <= 0 {
		return apperror.Newf(apperror.Validation, "quote for %s has non-positive price", quote.Symbol)
	}
	return nil
}

// ValidateArticle sanity-checks a news article before persistence.
func ValidateArticle(article *dto.ProviderArticle) error {
	if strings.TrimSpace(article.URL) == "" {
		return apperror.New(apperror.Validation, "article has empty url")
	}
	if strings.TrimSpace(article.Title) == "" {
		return apperror.Newf(apperror.Validation, "article %s has empty title", article.URL)
	}
	if article.PublishedAt.IsZero() {
		return apperror.Newf(apperror.Validation, "article %s has zero published time", article.URL)
	}
	return nil
}
