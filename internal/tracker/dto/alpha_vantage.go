package dto

// AlphaVantageDailyResponse is the TIME_SERIES_DAILY_ADJUSTED payload.
// Bars arrive as a date-keyed map of stringly-typed fields; Note and
// Information carry the rate-limit notices Alpha Vantage returns with
// HTTP 200.
type AlphaVantageDailyResponse struct {
	ErrorMessage string                            `json:"Error Message"`
	Note         string                            `json:"Note"`
	Information  string                            `json:"Information"`
	TimeSeries   map[string]AlphaVantageDailyEntry `json:"Time Series (Daily)"`
}

// AlphaVantageDailyEntry is one raw daily bar.
type AlphaVantageDailyEntry struct {
	Open          string `json:"1. open"`
	High          string `json:"2. high"`
	Low           string `json:"3. low"`
	Close         string `json:"4. close"`
	AdjustedClose string `json:"5. adjusted close"`
	Volume        string `json:"6. volume"`
}

// AlphaVantageQuoteResponse is the GLOBAL_QUOTE payload.
type AlphaVantageQuoteResponse struct {
	ErrorMessage string `json:"Error Message"`
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	GlobalQuote  struct {
		Symbol           string `json:"01. symbol"`
		Price            string `json:"05. price"`
		Volume           string `json:"06. volume"`
		LatestTradingDay string `json:"07. latest trading day"`
	} `json:"Global Quote"`
}

// AlphaVantageOverviewResponse is the OVERVIEW payload.
type AlphaVantageOverviewResponse struct {
	ErrorMessage         string `json:"Error Message"`
	Note                 string `json:"Note"`
	Information          string `json:"Information"`
	Symbol               string `json:"Symbol"`
	Name                 string `json:"Name"`
	Sector               string `json:"Sector"`
	Exchange             string `json:"Exchange"`
	Currency             string `json:"Currency"`
	MarketCapitalization string `json:"MarketCapitalization"`
}
