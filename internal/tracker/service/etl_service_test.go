package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"stock-tracker/internal/entity"
	"stock-tracker/internal/tracker/config"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/internal/tracker/repository"
	"stock-tracker/internal/tracker/sentiment"
	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/logger"
	"stock-tracker/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fake providers ---

type fakePriceProvider struct {
	bars     map[string][]dto.ProviderBar
	quotes   map[string]*dto.ProviderQuote
	profiles map[string]*dto.CompanyProfile
	fail     map[string]error
}

func (p *fakePriceProvider) Name() string { return "fake" }

func (p *fakePriceProvider) FetchDailyBars(_ context.Context, symbol string) ([]dto.ProviderBar, error) {
	if err := p.fail[symbol]; err != nil {
		return nil, err
	}
	return p.bars[symbol], nil
}

func (p *fakePriceProvider) FetchQuote(_ context.Context, symbol string) (*dto.ProviderQuote, error) {
	if err := p.fail[symbol]; err != nil {
		return nil, err
	}
	if quote, ok := p.quotes[symbol]; ok {
		return quote, nil
	}
	return nil, apperror.Newf(apperror.PermanentProvider, "no quote for %s", symbol)
}

func (p *fakePriceProvider) FetchCompanyProfile(_ context.Context, symbol string) (*dto.CompanyProfile, error) {
	if profile, ok := p.profiles[symbol]; ok {
		return profile, nil
	}
	return nil, apperror.Newf(apperror.PermanentProvider, "no profile for %s", symbol)
}

type fakeNewsProvider struct {
	articles map[string][]dto.ProviderArticle
	fail     map[string]error
}

func (p *fakeNewsProvider) Name() string { return "fake" }

func (p *fakeNewsProvider) FetchNews(_ context.Context, symbol, _ string, _ time.Time, _ int) ([]dto.ProviderArticle, error) {
	if err := p.fail[symbol]; err != nil {
		return nil, err
	}
	return p.articles[symbol], nil
}

// fakeScorer returns a per-title score, defaulting to neutral.
type fakeScorer struct {
	model  string
	scores map[string]dto.SentimentResult
}

func (s *fakeScorer) Model() string { return s.model }

func (s *fakeScorer) Score(_ context.Context, text string) (dto.SentimentResult, error) {
	for title, result := range s.scores {
		if len(title) <= len(text) && text[:len(title)] == title {
			return result, nil
		}
	}
	return dto.SentimentResult{Label: dto.SentimentNeutral}, nil
}

// --- fake repositories ---

type fakeStocksRepo struct {
	mu     sync.Mutex
	nextID uint
	stocks map[string]*entity.Stock
}

func newFakeStocksRepo() *fakeStocksRepo {
	return &fakeStocksRepo{stocks: map[string]*entity.Stock{}}
}

func (r *fakeStocksRepo) GetActive(context.Context) ([]entity.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Stock
	for _, s := range r.stocks {
		if s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeStocksRepo) FindBySymbol(_ context.Context, symbol string) (*entity.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stocks[symbol]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, nil
}

func (r *fakeStocksRepo) EnsureStock(_ context.Context, symbol string) (*entity.Stock, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stocks[symbol]; ok {
		copy := *s
		return &copy, false, nil
	}
	r.nextID++
	s := &entity.Stock{ID: r.nextID, Symbol: symbol, CompanyName: symbol, IsActive: true}
	r.stocks[symbol] = s
	copy := *s
	return &copy, true, nil
}

func (r *fakeStocksRepo) UpdateProfile(_ context.Context, stockID uint, profile *dto.CompanyProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stocks {
		if s.ID == stockID {
			s.CompanyName = profile.CompanyName
			s.Sector = profile.Sector
			return nil
		}
	}
	return apperror.New(apperror.Persistence, "stock not found")
}

func (r *fakeStocksRepo) Deactivate(_ context.Context, symbol string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stocks[symbol]; ok {
		s.IsActive = false
	}
	return nil
}

type fakePriceRepo struct {
	mu   sync.Mutex
	bars map[uint]map[time.Time]*entity.StockPrice
}

func newFakePriceRepo() *fakePriceRepo {
	return &fakePriceRepo{bars: map[uint]map[time.Time]*entity.StockPrice{}}
}

func (r *fakePriceRepo) UpsertBar(_ context.Context, bar *entity.StockPrice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bars[bar.StockID] == nil {
		r.bars[bar.StockID] = map[time.Time]*entity.StockPrice{}
	}
	copy := *bar
	r.bars[bar.StockID][bar.Date] = &copy
	return nil
}

func (r *fakePriceRepo) ExistingDates(_ context.Context, stockID uint, dates []time.Time) (map[time.Time]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[time.Time]bool{}
	for _, d := range dates {
		if _, ok := r.bars[stockID][d]; ok {
			out[d] = true
		}
	}
	return out, nil
}

func (r *fakePriceRepo) FindByStockAndDate(_ context.Context, stockID uint, date time.Time) (*entity.StockPrice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bar, ok := r.bars[stockID][date]; ok {
		copy := *bar
		return &copy, nil
	}
	return nil, nil
}

func (r *fakePriceRepo) FindPriorBar(_ context.Context, stockID uint, date time.Time) (*entity.StockPrice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var prior *entity.StockPrice
	for d, bar := range r.bars[stockID] {
		if d.Before(date) && (prior == nil || d.After(prior.Date)) {
			prior = bar
		}
	}
	if prior == nil {
		return nil, nil
	}
	copy := *prior
	return &copy, nil
}

type tickKey struct {
	stockID uint
	tickID  string
}

type fakeTickRepo struct {
	mu    sync.Mutex
	ticks map[tickKey]*entity.StockTick
}

func newFakeTickRepo() *fakeTickRepo {
	return &fakeTickRepo{ticks: map[tickKey]*entity.StockTick{}}
}

func (r *fakeTickRepo) CreateIgnoreConflict(_ context.Context, tick *entity.StockTick) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tickKey{tick.StockID, tick.TickID}
	if _, ok := r.ticks[key]; ok {
		return false, nil
	}
	copy := *tick
	r.ticks[key] = &copy
	return true, nil
}

type relationKey struct {
	stockID uint
	newsID  uint
}

type fakeNewsRepo struct {
	mu        sync.Mutex
	nextID    uint
	byURL     map[string]*entity.FinancialNews
	relations map[relationKey]*entity.StockNewsRelation

	// reports every insert as a conflict without storing a row, so
	// the follow-up lookup finds nothing
	conflictWithoutRow bool
}

func newFakeNewsRepo() *fakeNewsRepo {
	return &fakeNewsRepo{
		byURL:     map[string]*entity.FinancialNews{},
		relations: map[relationKey]*entity.StockNewsRelation{},
	}
}

func (r *fakeNewsRepo) CreateIgnoreConflict(_ context.Context, news *entity.FinancialNews) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictWithoutRow {
		return false, nil
	}
	if _, ok := r.byURL[news.URL]; ok {
		return false, nil
	}
	r.nextID++
	news.ID = r.nextID
	copy := *news
	r.byURL[news.URL] = &copy
	return true, nil
}

func (r *fakeNewsRepo) FindByURL(_ context.Context, url string) (*entity.FinancialNews, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if news, ok := r.byURL[url]; ok {
		copy := *news
		return &copy, nil
	}
	return nil, nil
}

func (r *fakeNewsRepo) UpdateSentimentLabel(_ context.Context, newsID uint, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, news := range r.byURL {
		if news.ID == newsID {
			news.Sentiment = label
			return nil
		}
	}
	return apperror.New(apperror.Persistence, "news not found")
}

func (r *fakeNewsRepo) LinkStock(_ context.Context, relation *entity.StockNewsRelation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := relationKey{relation.StockID, relation.NewsID}
	if _, ok := r.relations[key]; ok {
		return nil
	}
	copy := *relation
	r.relations[key] = &copy
	return nil
}

type sentimentKey struct {
	newsID uint
	model  string
}

type fakeSentimentRepo struct {
	mu   sync.Mutex
	rows map[sentimentKey]*entity.SentimentAnalysis
}

func newFakeSentimentRepo() *fakeSentimentRepo {
	return &fakeSentimentRepo{rows: map[sentimentKey]*entity.SentimentAnalysis{}}
}

func (r *fakeSentimentRepo) Upsert(_ context.Context, analysis *entity.SentimentAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *analysis
	r.rows[sentimentKey{analysis.NewsID, analysis.AnalysisModel}] = &copy
	return nil
}

type summaryKey struct {
	stockID uint
	date    time.Time
}

type fakeSummaryRepo struct {
	mu        sync.Mutex
	summaries map[summaryKey]*entity.DailyStockSummary
	news      *fakeNewsRepo
	sentiment *fakeSentimentRepo
}

func newFakeSummaryRepo(news *fakeNewsRepo, sent *fakeSentimentRepo) *fakeSummaryRepo {
	return &fakeSummaryRepo{
		summaries: map[summaryKey]*entity.DailyStockSummary{},
		news:      news,
		sentiment: sent,
	}
}

func (r *fakeSummaryRepo) Upsert(_ context.Context, summary *entity.DailyStockSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := *summary
	r.summaries[summaryKey{summary.StockID, summary.Date}] = &copy
	return nil
}

// GetDailyNewsStats mirrors the SQL aggregate: related articles
// published on the date, sentiment averaged across all model rows.
func (r *fakeSummaryRepo) GetDailyNewsStats(_ context.Context, stockID uint, date time.Time) (*repository.DailyNewsStats, error) {
	r.news.mu.Lock()
	defer r.news.mu.Unlock()
	r.sentiment.mu.Lock()
	defer r.sentiment.mu.Unlock()

	dayEnd := date.AddDate(0, 0, 1)
	stats := &repository.DailyNewsStats{}
	var sum float64
	var scored int
	for _, news := range r.news.byURL {
		if _, linked := r.news.relations[relationKey{stockID, news.ID}]; !linked {
			continue
		}
		if news.PublishedAt.Before(date) || !news.PublishedAt.Before(dayEnd) {
			continue
		}
		stats.NewsCount++
		for key, row := range r.sentiment.rows {
			if key.newsID == news.ID {
				sum += row.SentimentScore
				scored++
			}
		}
	}
	if scored > 0 {
		avg := sum / float64(scored)
		stats.AverageSentiment = &avg
	}
	return stats, nil
}

func (r *fakeSummaryRepo) FindRecentBySymbol(context.Context, string, int) ([]entity.DailyStockSummary, error) {
	return nil, nil
}

type fakeCycleRepo struct {
	mu        sync.Mutex
	histories []*entity.ETLCycleHistory
}

func (r *fakeCycleRepo) Create(_ context.Context, history *entity.ETLCycleHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uint(len(r.histories) + 1)
	r.histories = append(r.histories, history)
	return nil
}

func (r *fakeCycleRepo) Update(context.Context, *entity.ETLCycleHistory) error { return nil }

func (r *fakeCycleRepo) FindLatest(context.Context) (*entity.ETLCycleHistory, error) {
	return nil, nil
}

func (r *fakeCycleRepo) FindRecent(context.Context, int) ([]entity.ETLCycleHistory, error) {
	return nil, nil
}

// --- harness ---

type testHarness struct {
	service   ETLService
	stocks    *fakeStocksRepo
	prices    *fakePriceRepo
	ticks     *fakeTickRepo
	news      *fakeNewsRepo
	sentiment *fakeSentimentRepo
	summaries *fakeSummaryRepo
	cycles    *fakeCycleRepo
}

func newTestHarness(t *testing.T, symbols []string, priceProvider repository.PriceProvider, newsProvider repository.NewsProvider, scorers []sentiment.Scorer) *testHarness {
	t.Helper()

	log, err := logger.New("error", "json")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Tracker.Symbols = symbols
	cfg.Tracker.MaxConcurrent = 2
	cfg.Tracker.NewsLookbackDays = 3
	cfg.Tracker.NewsLimit = 10
	cfg.Tracker.Retry.MaxAttempts = 2
	cfg.Tracker.Retry.InitialBackoff = time.Millisecond
	cfg.Tracker.Retry.MaxBackoff = 2 * time.Millisecond
	cfg.Sentiment.Models = []string{"fake"}
	cfg.Sentiment.PrimaryModel = "fake"
	if len(scorers) > 0 {
		cfg.Sentiment.PrimaryModel = scorers[0].Model()
	}

	h := &testHarness{
		stocks:    newFakeStocksRepo(),
		prices:    newFakePriceRepo(),
		ticks:     newFakeTickRepo(),
		news:      newFakeNewsRepo(),
		sentiment: newFakeSentimentRepo(),
		cycles:    &fakeCycleRepo{},
	}
	h.summaries = newFakeSummaryRepo(h.news, h.sentiment)
	h.service = NewETLService(cfg, log,
		priceProvider, newsProvider, scorers,
		h.stocks, h.prices, h.ticks, h.news, h.sentiment, h.summaries, h.cycles)
	return h
}

func barAt(symbol string, date time.Time, close float64) dto.ProviderBar {
	return dto.ProviderBar{
		Symbol: symbol,
		Date:   date,
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: 1000,
	}
}

// --- tests ---

func TestRunCyclePriceChangeComputation(t *testing.T) {
	asOf := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	day0 := utils.DateOnly(asOf.AddDate(0, 0, -2))
	day1 := utils.DateOnly(asOf.AddDate(0, 0, -1))
	day2 := utils.DateOnly(asOf)

	priceProvider := &fakePriceProvider{
		bars: map[string][]dto.ProviderBar{
			"AAPL": {
				barAt("AAPL", day0, 100),
				barAt("AAPL", day1, 105),
				barAt("AAPL", day2, 95),
			},
		},
		quotes: map[string]*dto.ProviderQuote{
			"AAPL": {Symbol: "AAPL", TickID: "t1", Timestamp: asOf, Price: 95, Volume: 10},
		},
	}
	h := newTestHarness(t, []string{"AAPL"}, priceProvider, &fakeNewsProvider{}, nil)

	report, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)
	require.False(t, report.HasFailures(), "failures: %v", report.Failures)
	assert.Equal(t, 3, report.PriceBars.Inserted)
	assert.Equal(t, 3, report.Summaries.Inserted)

	stockID := h.stocks.stocks["AAPL"].ID

	first := h.summaries.summaries[summaryKey{stockID, day0}]
	require.NotNil(t, first)
	assert.Nil(t, first.PriceChange)
	assert.Nil(t, first.PriceChangePercent)

	second := h.summaries.summaries[summaryKey{stockID, day1}]
	require.NotNil(t, second)
	require.NotNil(t, second.PriceChangePercent)
	assert.InDelta(t, 5.0, *second.PriceChange, 1e-9)
	assert.InDelta(t, 5.0, *second.PriceChangePercent, 1e-9)

	third := h.summaries.summaries[summaryKey{stockID, day2}]
	require.NotNil(t, third)
	require.NotNil(t, third.PriceChangePercent)
	assert.InDelta(t, -10.0, *third.PriceChange, 1e-9)
	assert.InDelta(t, -9.5238, *third.PriceChangePercent, 0.001)
}

func TestRunCycleSymbolFailureIsolation(t *testing.T) {
	asOf := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	day := utils.DateOnly(asOf)

	priceProvider := &fakePriceProvider{
		bars: map[string][]dto.ProviderBar{
			"GOOD": {barAt("GOOD", day, 50)},
		},
		quotes: map[string]*dto.ProviderQuote{
			"GOOD": {Symbol: "GOOD", TickID: "t1", Timestamp: asOf, Price: 50, Volume: 5},
		},
		fail: map[string]error{
			"BAD": apperror.New(apperror.PermanentProvider, "symbol does not exist"),
		},
	}
	h := newTestHarness(t, []string{"GOOD", "BAD"}, priceProvider, &fakeNewsProvider{}, nil)

	report, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)

	require.True(t, report.HasFailures())
	for _, failure := range report.Failures {
		assert.Equal(t, "BAD", failure.Symbol)
	}

	// the good symbol still went all the way through
	assert.Equal(t, 1, report.PriceBars.Inserted)
	assert.Equal(t, 1, report.Ticks.Inserted)
	assert.Equal(t, 1, report.Summaries.Inserted)
	goodID := h.stocks.stocks["GOOD"].ID
	assert.NotNil(t, h.summaries.summaries[summaryKey{goodID, day}])
}

func TestRunCycleTransientErrorRetried(t *testing.T) {
	asOf := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	day := utils.DateOnly(asOf)

	attempts := 0
	provider := &flakyPriceProvider{
		bar: barAt("AAPL", day, 42),
		fetchBars: func() error {
			attempts++
			if attempts == 1 {
				return apperror.New(apperror.TransientProvider, "rate limited")
			}
			return nil
		},
	}
	h := newTestHarness(t, []string{"AAPL"}, provider, &fakeNewsProvider{}, nil)

	report, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, report.PriceBars.Inserted)
}

type flakyPriceProvider struct {
	bar       dto.ProviderBar
	fetchBars func() error
}

func (p *flakyPriceProvider) Name() string { return "flaky" }

func (p *flakyPriceProvider) FetchDailyBars(context.Context, string) ([]dto.ProviderBar, error) {
	if err := p.fetchBars(); err != nil {
		return nil, err
	}
	return []dto.ProviderBar{p.bar}, nil
}

func (p *flakyPriceProvider) FetchQuote(_ context.Context, symbol string) (*dto.ProviderQuote, error) {
	return &dto.ProviderQuote{Symbol: symbol, TickID: "t", Timestamp: time.Now(), Price: 1, Volume: 1}, nil
}

func (p *flakyPriceProvider) FetchCompanyProfile(context.Context, string) (*dto.CompanyProfile, error) {
	return nil, apperror.New(apperror.PermanentProvider, "no profile")
}

func TestRunCycleValidationSkips(t *testing.T) {
	asOf := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	day := utils.DateOnly(asOf)

	invalidBar := barAt("AAPL", day.AddDate(0, 0, -1), 10)
	invalidBar.High = 5 // high below low

	priceProvider := &fakePriceProvider{
		bars: map[string][]dto.ProviderBar{
			"AAPL": {invalidBar, barAt("AAPL", day, 10)},
		},
		quotes: map[string]*dto.ProviderQuote{
			"AAPL": {Symbol: "AAPL", TickID: "t1", Timestamp: asOf, Price: 10, Volume: 1},
		},
	}
	newsProvider := &fakeNewsProvider{
		articles: map[string][]dto.ProviderArticle{
			"AAPL": {
				{Title: "no url", PublishedAt: asOf},
				{Title: "ok", URL: "https://example.com/a", PublishedAt: asOf},
			},
		},
	}
	h := newTestHarness(t, []string{"AAPL"}, priceProvider, newsProvider, nil)

	report, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)

	assert.False(t, report.HasFailures(), "validation rejects are skips, not failures")
	assert.Equal(t, 1, report.PriceBars.Skipped)
	assert.Equal(t, 1, report.PriceBars.Inserted)
	assert.Equal(t, 1, report.Articles.Skipped)
	assert.Equal(t, 1, report.Articles.Inserted)
}

func TestRunCycleDuplicateArticleRowMissing(t *testing.T) {
	asOf := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	day := utils.DateOnly(asOf)

	priceProvider := &fakePriceProvider{
		bars: map[string][]dto.ProviderBar{"AAPL": {barAt("AAPL", day, 10)}},
		quotes: map[string]*dto.ProviderQuote{
			"AAPL": {Symbol: "AAPL", TickID: "t1", Timestamp: asOf, Price: 10, Volume: 1},
		},
	}
	newsProvider := &fakeNewsProvider{
		articles: map[string][]dto.ProviderArticle{
			"AAPL": {{Title: "story", URL: "https://example.com/story", PublishedAt: asOf}},
		},
	}
	h := newTestHarness(t, []string{"AAPL"}, priceProvider, newsProvider, nil)
	h.news.conflictWithoutRow = true

	report, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Articles.Inserted)
	assert.Equal(t, 0, report.Articles.Skipped)
	assert.Equal(t, 1, report.Articles.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, dto.StageNews, report.Failures[0].Stage)
	assert.Equal(t, string(apperror.Persistence), report.Failures[0].Kind)
	assert.Empty(t, h.news.relations, "no relation without a news row")
}

func TestRunCycleURLDedupe(t *testing.T) {
	asOf := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	day := utils.DateOnly(asOf)

	priceProvider := &fakePriceProvider{
		bars: map[string][]dto.ProviderBar{"AAPL": {barAt("AAPL", day, 10)}},
		quotes: map[string]*dto.ProviderQuote{
			"AAPL": {Symbol: "AAPL", TickID: "t1", Timestamp: asOf, Price: 10, Volume: 1},
		},
	}
	newsProvider := &fakeNewsProvider{
		articles: map[string][]dto.ProviderArticle{
			"AAPL": {{Title: "story", URL: "https://example.com/story", PublishedAt: asOf}},
		},
	}
	scorer := &fakeScorer{model: "fake", scores: map[string]dto.SentimentResult{
		"story": {Score: 0.5, Label: dto.SentimentPositive, Confidence: 0.9},
	}}
	h := newTestHarness(t, []string{"AAPL"}, priceProvider, newsProvider, []sentiment.Scorer{scorer})

	first, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Articles.Inserted)
	assert.Equal(t, 1, first.Sentiments.Inserted)

	second, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Articles.Inserted)
	assert.Equal(t, 1, second.Articles.Skipped)
	assert.Equal(t, 0, second.Sentiments.Inserted, "duplicates are not re-scored")

	assert.Len(t, h.news.byURL, 1)
	assert.Len(t, h.sentiment.rows, 1)

	// re-running the same bars counts them as updates
	assert.Equal(t, 0, second.PriceBars.Inserted)
	assert.Equal(t, 1, second.PriceBars.Updated)
	assert.Equal(t, 1, second.Ticks.Skipped)
}

func TestRunCyclePrimaryModelLabel(t *testing.T) {
	asOf := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	day := utils.DateOnly(asOf)

	priceProvider := &fakePriceProvider{
		bars: map[string][]dto.ProviderBar{"AAPL": {barAt("AAPL", day, 10)}},
		quotes: map[string]*dto.ProviderQuote{
			"AAPL": {Symbol: "AAPL", TickID: "t1", Timestamp: asOf, Price: 10, Volume: 1},
		},
	}
	newsProvider := &fakeNewsProvider{
		articles: map[string][]dto.ProviderArticle{
			"AAPL": {{Title: "mixed", URL: "https://example.com/mixed", PublishedAt: asOf}},
		},
	}
	primary := &fakeScorer{model: "primary", scores: map[string]dto.SentimentResult{
		"mixed": {Score: 0.6, Label: dto.SentimentPositive, Confidence: 0.8},
	}}
	secondary := &fakeScorer{model: "secondary", scores: map[string]dto.SentimentResult{
		"mixed": {Score: -0.4, Label: dto.SentimentNegative, Confidence: 0.7},
	}}
	h := newTestHarness(t, []string{"AAPL"}, priceProvider, newsProvider, []sentiment.Scorer{primary, secondary})

	report, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Sentiments.Inserted)

	news := h.news.byURL["https://example.com/mixed"]
	require.NotNil(t, news)
	assert.Equal(t, dto.SentimentPositive, news.Sentiment, "denormalized label follows the primary model")

	assert.NotNil(t, h.sentiment.rows[sentimentKey{news.ID, "primary"}])
	assert.NotNil(t, h.sentiment.rows[sentimentKey{news.ID, "secondary"}])
}

func TestRunCycleAverageSentiment(t *testing.T) {
	asOf := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	day := utils.DateOnly(asOf)
	prevDay := day.AddDate(0, 0, -1)

	priceProvider := &fakePriceProvider{
		bars: map[string][]dto.ProviderBar{
			"AAPL": {barAt("AAPL", prevDay, 10), barAt("AAPL", day, 10)},
		},
		quotes: map[string]*dto.ProviderQuote{
			"AAPL": {Symbol: "AAPL", TickID: "t1", Timestamp: asOf, Price: 10, Volume: 1},
		},
	}
	newsProvider := &fakeNewsProvider{
		articles: map[string][]dto.ProviderArticle{
			"AAPL": {
				{Title: "up", URL: "https://example.com/up", PublishedAt: asOf},
				{Title: "down", URL: "https://example.com/down", PublishedAt: asOf},
			},
		},
	}
	scorer := &fakeScorer{model: "fake", scores: map[string]dto.SentimentResult{
		"up":   {Score: 0.5, Label: dto.SentimentPositive, Confidence: 0.9},
		"down": {Score: -0.1, Label: dto.SentimentNeutral, Confidence: 0.4},
	}}
	h := newTestHarness(t, []string{"AAPL"}, priceProvider, newsProvider, []sentiment.Scorer{scorer})

	_, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)

	stockID := h.stocks.stocks["AAPL"].ID

	today := h.summaries.summaries[summaryKey{stockID, day}]
	require.NotNil(t, today)
	assert.Equal(t, 2, today.NewsCount)
	require.NotNil(t, today.AverageSentiment)
	assert.InDelta(t, 0.2, *today.AverageSentiment, 1e-9)

	// the day without articles keeps a null average, not zero
	yesterday := h.summaries.summaries[summaryKey{stockID, prevDay}]
	require.NotNil(t, yesterday)
	assert.Equal(t, 0, yesterday.NewsCount)
	assert.Nil(t, yesterday.AverageSentiment)
}

func TestRunCycleTextMatchRelations(t *testing.T) {
	asOf := time.Date(2026, 3, 6, 12, 0, 0, 0, time.UTC)
	day := utils.DateOnly(asOf)

	priceProvider := &fakePriceProvider{
		bars: map[string][]dto.ProviderBar{
			"AAPL": {barAt("AAPL", day, 10)},
			"MSFT": {barAt("MSFT", day, 20)},
		},
		quotes: map[string]*dto.ProviderQuote{
			"AAPL": {Symbol: "AAPL", TickID: "t1", Timestamp: asOf, Price: 10, Volume: 1},
			"MSFT": {Symbol: "MSFT", TickID: "t2", Timestamp: asOf, Price: 20, Volume: 1},
		},
	}
	newsProvider := &fakeNewsProvider{
		articles: map[string][]dto.ProviderArticle{
			"AAPL": {{
				Title:       "AAPL and MSFT both rally",
				Content:     "A strong day for AAPL and MSFT.",
				URL:         "https://example.com/rally",
				PublishedAt: asOf,
			}},
		},
	}
	h := newTestHarness(t, []string{"MSFT", "AAPL"}, priceProvider, newsProvider, nil)

	// first cycle registers both stocks, second links the article
	_, err := h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)
	_, err = h.service.RunCycle(context.Background(), CycleOptions{AsOf: asOf})
	require.NoError(t, err)

	aaplID := h.stocks.stocks["AAPL"].ID
	msftID := h.stocks.stocks["MSFT"].ID
	news := h.news.byURL["https://example.com/rally"]
	require.NotNil(t, news)

	direct := h.news.relations[relationKey{aaplID, news.ID}]
	require.NotNil(t, direct)
	assert.InDelta(t, 0.90, direct.RelevanceScore, 1e-9)

	matched := h.news.relations[relationKey{msftID, news.ID}]
	require.NotNil(t, matched, "text mention links the other stock")
	assert.InDelta(t, 0.75, matched.RelevanceScore, 1e-9)
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("shares of aapl rally", "aapl"))
	assert.True(t, containsWord("aapl rallies", "aapl"))
	assert.False(t, containsWord("snapple is a drink", "aapl"))
	assert.False(t, containsWord("a great day", "aa"))
	assert.False(t, containsWord("anything", ""))
}
