package dto

import "time"

// ProviderBar is one normalized daily OHLCV bar as returned by a price
// provider, before persistence.
type ProviderBar struct {
	Symbol        string    `json:"symbol"`
	Date          time.Time `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose *float64  `json:"adjusted_close,omitempty"`
	Volume        int64     `json:"volume"`
}

// ProviderQuote is a single intraday quote snapshot. TickID is the
// provider-supplied identifier when the provider has one; otherwise the
// fetching repository composes a deterministic one so re-ingestion stays
// idempotent.
type ProviderQuote struct {
	Symbol    string    `json:"symbol"`
	TickID    string    `json:"tick_id"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    int64     `json:"volume"`
	Bid       *float64  `json:"bid,omitempty"`
	Ask       *float64  `json:"ask,omitempty"`
}

// CompanyProfile carries stock metadata for the stocks table.
type CompanyProfile struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector"`
	MarketCap   int64  `json:"market_cap"`
	Exchange    string `json:"exchange"`
	Currency    string `json:"currency"`
}
