package dto

// YahooChartResponse is the envelope of the Yahoo Finance v8 chart API.
type YahooChartResponse struct {
	Chart struct {
		Result []YahooChartResult `json:"result"`
		Error  *YahooAPIError     `json:"error"`
	} `json:"chart"`
}

// YahooAPIError is Yahoo's inline error body.
type YahooAPIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooChartResult carries the parallel timestamp/indicator arrays of
// one chart query.
type YahooChartResult struct {
	Meta       YahooChartMeta `json:"meta"`
	Timestamp  []int64        `json:"timestamp"`
	Indicators struct {
		Quote    []YahooQuoteIndicator    `json:"quote"`
		AdjClose []YahooAdjCloseIndicator `json:"adjclose"`
	} `json:"indicators"`
}

// YahooChartMeta holds the chart metadata, including the live market
// quote.
type YahooChartMeta struct {
	Currency            string  `json:"currency"`
	Symbol              string  `json:"symbol"`
	ExchangeName        string  `json:"exchangeName"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	RegularMarketTime   int64   `json:"regularMarketTime"`
	RegularMarketVolume int64   `json:"regularMarketVolume"`
}

// YahooQuoteIndicator holds OHLCV arrays aligned with Timestamp.
// Entries are pointers because Yahoo emits null for halted sessions.
type YahooQuoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// YahooAdjCloseIndicator holds split/dividend adjusted closes.
type YahooAdjCloseIndicator struct {
	AdjClose []*float64 `json:"adjclose"`
}

// YahooQuoteSummaryResponse is the envelope of the v10 quoteSummary API.
type YahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []YahooQuoteSummaryResult `json:"result"`
		Error  *YahooAPIError            `json:"error"`
	} `json:"quoteSummary"`
}

// YahooQuoteSummaryResult carries the requested quoteSummary modules.
type YahooQuoteSummaryResult struct {
	AssetProfile *struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"assetProfile"`
	Price *struct {
		LongName     string `json:"longName"`
		ShortName    string `json:"shortName"`
		ExchangeName string `json:"exchangeName"`
		Currency     string `json:"currency"`
		MarketCap    struct {
			Raw int64 `json:"raw"`
		} `json:"marketCap"`
	} `json:"price"`
}
