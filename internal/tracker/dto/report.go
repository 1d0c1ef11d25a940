package dto

import "time"

// Pipeline stages referenced in failure entries.
const (
	StageStock     = "stock"
	StagePrice     = "price"
	StageTick      = "tick"
	StageNews      = "news"
	StageSentiment = "sentiment"
	StageAggregate = "aggregate"
)

// Counts tallies the outcome of ingesting one entity type.
type Counts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Add merges other into c.
func (c *Counts) Add(other Counts) {
	c.Inserted += other.Inserted
	c.Updated += other.Updated
	c.Skipped += other.Skipped
	c.Failed += other.Failed
}

// SymbolFailure records one contained per-symbol failure.
type SymbolFailure struct {
	Symbol string `json:"symbol"`
	Stage  string `json:"stage"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

// CycleReport summarizes one complete fetch-transform-persist pass over
// the symbol universe.
type CycleReport struct {
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	Symbols     int             `json:"symbols"`
	Stocks      Counts          `json:"stocks"`
	PriceBars   Counts          `json:"price_bars"`
	Ticks       Counts          `json:"ticks"`
	Articles    Counts          `json:"articles"`
	Sentiments  Counts          `json:"sentiments"`
	Summaries   Counts          `json:"summaries"`
	Failures    []SymbolFailure `json:"failures"`
}

// HasFailures reports whether any symbol failed. Skipped records do not
// count as failures.
func (r *CycleReport) HasFailures() bool {
	return len(r.Failures) > 0
}

// Merge folds a per-symbol report fragment into r.
func (r *CycleReport) Merge(other *CycleReport) {
	r.Stocks.Add(other.Stocks)
	r.PriceBars.Add(other.PriceBars)
	r.Ticks.Add(other.Ticks)
	r.Articles.Add(other.Articles)
	r.Sentiments.Add(other.Sentiments)
	r.Summaries.Add(other.Summaries)
	r.Failures = append(r.Failures, other.Failures...)
}
