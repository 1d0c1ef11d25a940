package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"stock-tracker/internal/entity"
	"stock-tracker/internal/tracker/config"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/internal/tracker/repository"
	"stock-tracker/internal/tracker/sentiment"
	"stock-tracker/pkg/apperror"
	"stock-tracker/pkg/logger"
	"stock-tracker/pkg/retry"
	"stock-tracker/pkg/utils"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// Cycle modes recorded on etl_cycle_history rows.
const (
	ModeOnce       = "once"
	ModeContinuous = "continuous"
)

// Relevance assigned to article-stock links. A direct link means the
// article was fetched for that symbol; a text match means the symbol or
// company name merely appears in the article.
const (
	relevanceDirect    = 0.90
	relevanceTextMatch = 0.75
)

// CycleOptions parameterizes one orchestrator cycle.
type CycleOptions struct {
	Mode            string
	Symbols         []string
	RefreshProfiles bool
	AsOf            time.Time
}

// ETLService runs the fetch-transform-persist pipeline over the symbol
// universe.
type ETLService interface {
	RunCycle(ctx context.Context, opts CycleOptions) (*dto.CycleReport, error)
}

type etlService struct {
	cfg           *config.Config
	log           *logger.Logger
	priceProvider repository.PriceProvider
	newsProvider  repository.NewsProvider
	scorers       []sentiment.Scorer
	stocksRepo    repository.StocksRepository
	pricesRepo    repository.StockPriceRepository
	ticksRepo     repository.StockTickRepository
	newsRepo      repository.NewsRepository
	sentimentRepo repository.SentimentRepository
	summaryRepo   repository.DailySummaryRepository
	cyclesRepo    repository.CycleHistoryRepository
	stockCache    *gocache.Cache
	retryPolicy   retry.Policy
}

// NewETLService creates the cycle orchestrator.
func NewETLService(
	cfg *config.Config,
	log *logger.Logger,
	priceProvider repository.PriceProvider,
	newsProvider repository.NewsProvider,
	scorers []sentiment.Scorer,
	stocksRepo repository.StocksRepository,
	pricesRepo repository.StockPriceRepository,
	ticksRepo repository.StockTickRepository,
	newsRepo repository.NewsRepository,
	sentimentRepo repository.SentimentRepository,
	summaryRepo repository.DailySummaryRepository,
	cyclesRepo repository.CycleHistoryRepository,
) ETLService {
	return &etlService{
		cfg:           cfg,
		log:           log,
		priceProvider: priceProvider,
		newsProvider:  newsProvider,
		scorers:       scorers,
		stocksRepo:    stocksRepo,
		pricesRepo:    pricesRepo,
		ticksRepo:     ticksRepo,
		newsRepo:      newsRepo,
		sentimentRepo: sentimentRepo,
		summaryRepo:   summaryRepo,
		cyclesRepo:    cyclesRepo,
		stockCache:    gocache.New(1*time.Hour, 10*time.Minute),
		retryPolicy: retry.Policy{
			MaxAttempts:    cfg.Tracker.Retry.MaxAttempts,
			InitialBackoff: cfg.Tracker.Retry.InitialBackoff,
			MaxBackoff:     cfg.Tracker.Retry.MaxBackoff,
		},
	}
}

// RunCycle processes every symbol through the full pipeline. Failures
// are contained per symbol and reported, never propagated as an error;
// the returned report is always complete.
func (s *etlService) RunCycle(ctx context.Context, opts CycleOptions) (*dto.CycleReport, error) {
	symbols := opts.Symbols
	if len(symbols) == 0 {
		symbols = s.cfg.Tracker.Symbols
	}
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeOnce
	}

	report := &dto.CycleReport{
		StartedAt: asOf,
		Symbols:   len(symbols),
		Failures:  []dto.SymbolFailure{},
	}

	// stocks registered by the previous cycle must be visible to this
	// cycle's text matching
	s.stockCache.Delete(activeStocksCacheKey)

	history := &entity.ETLCycleHistory{
		Mode:      mode,
		Status:    entity.CycleStatusRunning,
		StartedAt: asOf,
	}
	if err := s.cyclesRepo.Create(ctx, history); err != nil {
		s.log.ErrorContext(ctx, "Failed to record cycle start", logger.ErrorField(err))
	}

	s.log.InfoContext(ctx, "Cycle started",
		logger.StringField("mode", mode),
		logger.IntField("symbols", len(symbols)),
		logger.StringField("price_provider", s.priceProvider.Name()),
		logger.StringField("news_provider", s.newsProvider.Name()),
	)

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.Tracker.MaxConcurrent)
	for _, symbol := range symbols {
		group.Go(func() error {
			fragment := s.processSymbol(groupCtx, symbol, opts.RefreshProfiles, asOf)
			mu.Lock()
			report.Merge(fragment)
			mu.Unlock()
			return nil
		})
	}
	// workers never return errors, failures live in the report
	_ = group.Wait()

	report.CompletedAt = time.Now().UTC()
	s.finishHistory(ctx, history, report)

	s.log.InfoContext(ctx, "Cycle completed",
		logger.DurationField("duration", report.CompletedAt.Sub(report.StartedAt)),
		logger.IntField("bars_inserted", report.PriceBars.Inserted),
		logger.IntField("bars_updated", report.PriceBars.Updated),
		logger.IntField("articles_inserted", report.Articles.Inserted),
		logger.IntField("failures", len(report.Failures)),
	)
	return report, nil
}

func (s *etlService) finishHistory(ctx context.Context, history *entity.ETLCycleHistory, report *dto.CycleReport) {
	if history.ID == 0 {
		return
	}
	history.Status = entity.CycleStatusCompleted
	if report.HasFailures() {
		history.Status = entity.CycleStatusFailed
		history.ErrorMessage.String = report.Failures[0].Error
		history.ErrorMessage.Valid = true
	}
	history.CompletedAt.Time = report.CompletedAt
	history.CompletedAt.Valid = true

	if raw, err := json.Marshal(report); err == nil {
		history.Report = datatypes.JSON(raw)
	}
	if err := s.cyclesRepo.Update(ctx, history); err != nil {
		s.log.ErrorContext(ctx, "Failed to record cycle completion", logger.ErrorField(err))
	}
}

// processSymbol runs one symbol through every stage. Each stage failure
// is recorded and contained so the remaining stages and symbols still
// run.
func (s *etlService) processSymbol(ctx context.Context, symbol string, refreshProfile bool, asOf time.Time) *dto.CycleReport {
	fragment := &dto.CycleReport{Failures: []dto.SymbolFailure{}}

	stock, err := s.ensureStock(ctx, symbol, refreshProfile, fragment)
	if err != nil {
		s.recordFailure(ctx, fragment, symbol, dto.StageStock, err)
		fragment.Stocks.Failed++
		return fragment
	}

	ingestedDates := s.ingestPrices(ctx, stock, fragment)
	s.ingestTick(ctx, stock, fragment)
	s.ingestNews(ctx, stock, asOf, fragment)
	s.aggregate(ctx, stock, ingestedDates, fragment)

	return fragment
}

func (s *etlService) ensureStock(ctx context.Context, symbol string, refreshProfile bool, fragment *dto.CycleReport) (*entity.Stock, error) {
	if cached, ok := s.stockCache.Get(symbol); ok && !refreshProfile {
		fragment.Stocks.Skipped++
		return cached.(*entity.Stock), nil
	}

	stock, created, err := s.stocksRepo.EnsureStock(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if created {
		fragment.Stocks.Inserted++
	}

	if created || refreshProfile {
		profile, err := s.fetchProfile(ctx, symbol)
		if err != nil {
			// profile data is enrichment, the pipeline continues on the
			// bare symbol
			s.log.WarnContext(ctx, "Failed to fetch company profile",
				logger.StringField("symbol", symbol),
				logger.ErrorField(err),
			)
		} else if err := s.stocksRepo.UpdateProfile(ctx, stock.ID, profile); err != nil {
			s.log.WarnContext(ctx, "Failed to store company profile",
				logger.StringField("symbol", symbol),
				logger.ErrorField(err),
			)
		} else {
			stock.CompanyName = profile.CompanyName
			if !created {
				fragment.Stocks.Updated++
			}
		}
	}
	if !created && !refreshProfile {
		fragment.Stocks.Skipped++
	}

	s.stockCache.Set(symbol, stock, gocache.DefaultExpiration)
	return stock, nil
}

func (s *etlService) fetchProfile(ctx context.Context, symbol string) (*dto.CompanyProfile, error) {
	var profile *dto.CompanyProfile
	err := retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		var err error
		profile, err = s.priceProvider.FetchCompanyProfile(ctx, symbol)
		return err
	})
	return profile, err
}

// ingestPrices fetches and stores daily bars, returning the dates that
// were written so aggregation knows what to recompute.
func (s *etlService) ingestPrices(ctx context.Context, stock *entity.Stock, fragment *dto.CycleReport) []time.Time {
	var bars []dto.ProviderBar
	err := retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		var err error
		bars, err = s.priceProvider.FetchDailyBars(ctx, stock.Symbol)
		return err
	})
	if err != nil {
		s.recordFailure(ctx, fragment, stock.Symbol, dto.StagePrice, err)
		fragment.PriceBars.Failed++
		return nil
	}

	dates := make([]time.Time, 0, len(bars))
	for i := range bars {
		dates = append(dates, utils.DateOnly(bars[i].Date))
	}
	existing, err := s.pricesRepo.ExistingDates(ctx, stock.ID, dates)
	if err != nil {
		// accounting only, treat everything as an insert
		s.log.WarnContext(ctx, "Failed to look up existing bar dates",
			logger.StringField("symbol", stock.Symbol),
			logger.ErrorField(err),
		)
		existing = map[time.Time]bool{}
	}

	var ingested []time.Time
	for i := range bars {
		bar := &bars[i]
		if err := ValidateBar(bar); err != nil {
			s.log.DebugContext(ctx, "Skipping invalid bar", logger.ErrorField(err))
			fragment.PriceBars.Skipped++
			continue
		}
		date := utils.DateOnly(bar.Date)
		row := &entity.StockPrice{
			StockID:       stock.ID,
			Date:          date,
			OpenPrice:     bar.Open,
			HighPrice:     bar.High,
			LowPrice:      bar.Low,
			ClosePrice:    bar.Close,
			AdjustedClose: bar.AdjustedClose,
			Volume:        bar.Volume,
		}
		if err := s.pricesRepo.UpsertBar(ctx, row); err != nil {
			s.recordFailure(ctx, fragment, stock.Symbol, dto.StagePrice, err)
			fragment.PriceBars.Failed++
			continue
		}
		if existing[date] {
			fragment.PriceBars.Updated++
		} else {
			fragment.PriceBars.Inserted++
		}
		ingested = append(ingested, date)
	}
	return ingested
}

func (s *etlService) ingestTick(ctx context.Context, stock *entity.Stock, fragment *dto.CycleReport) {
	var quote *dto.ProviderQuote
	err := retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		var err error
		quote, err = s.priceProvider.FetchQuote(ctx, stock.Symbol)
		return err
	})
	if err != nil {
		s.recordFailure(ctx, fragment, stock.Symbol, dto.StageTick, err)
		fragment.Ticks.Failed++
		return
	}
	if err := ValidateQuote(quote); err != nil {
		s.log.DebugContext(ctx, "Skipping invalid quote", logger.ErrorField(err))
		fragment.Ticks.Skipped++
		return
	}

	inserted, err := s.ticksRepo.CreateIgnoreConflict(ctx, &entity.StockTick{
		StockID:   stock.ID,
		TickID:    quote.TickID,
		Timestamp: quote.Timestamp,
		Price:     quote.Price,
		Volume:    quote.Volume,
		BidPrice:  quote.Bid,
		AskPrice:  quote.Ask,
	})
	if err != nil {
		s.recordFailure(ctx, fragment, stock.Symbol, dto.StageTick, err)
		fragment.Ticks.Failed++
		return
	}
	if inserted {
		fragment.Ticks.Inserted++
	} else {
		fragment.Ticks.Skipped++
	}
}

func (s *etlService) ingestNews(ctx context.Context, stock *entity.Stock, asOf time.Time, fragment *dto.CycleReport) {
	since := asOf.AddDate(0, 0, -s.cfg.Tracker.NewsLookbackDays)

	var articles []dto.ProviderArticle
	err := retry.Do(ctx, s.retryPolicy, func(ctx context.Context) error {
		var err error
		articles, err = s.newsProvider.FetchNews(ctx, stock.Symbol, stock.CompanyName, since, s.cfg.Tracker.NewsLimit)
		return err
	})
	if err != nil {
		s.recordFailure(ctx, fragment, stock.Symbol, dto.StageNews, err)
		fragment.Articles.Failed++
		return
	}

	activeStocks, err := s.activeStocks(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to load active stocks for text matching",
			logger.ErrorField(err),
		)
	}

	for i := range articles {
		if !utils.ShouldContinue(ctx, s.log) {
			return
		}
		s.ingestArticle(ctx, stock, &articles[i], activeStocks, fragment)
	}
}

func (s *etlService) ingestArticle(ctx context.Context, stock *entity.Stock, article *dto.ProviderArticle, activeStocks []entity.Stock, fragment *dto.CycleReport) {
	if err := ValidateArticle(article); err != nil {
		s.log.DebugContext(ctx, "Skipping invalid article", logger.ErrorField(err))
		fragment.Articles.Skipped++
		return
	}

	news := &entity.FinancialNews{
		NewsSource:  article.Source,
		Company:     stock.CompanyName,
		Symbol:      stock.Symbol,
		Title:       article.Title,
		Content:     article.Content,
		PublishedAt: article.PublishedAt,
		URL:         article.URL,
	}
	if article.Author != "" {
		news.Author = utils.ToPointer(article.Author)
	}

	inserted, err := s.newsRepo.CreateIgnoreConflict(ctx, news)
	if err != nil {
		s.recordFailure(ctx, fragment, stock.Symbol, dto.StageNews, err)
		fragment.Articles.Failed++
		return
	}
	if inserted {
		fragment.Articles.Inserted++
		s.scoreArticle(ctx, stock.Symbol, news, fragment)
	} else {
		existing, err := s.newsRepo.FindByURL(ctx, article.URL)
		if err != nil {
			s.recordFailure(ctx, fragment, stock.Symbol, dto.StageNews, err)
			fragment.Articles.Failed++
			return
		}
		if existing == nil {
			err := apperror.Newf(apperror.Persistence, "article %s disappeared between upsert and lookup", article.URL)
			s.recordFailure(ctx, fragment, stock.Symbol, dto.StageNews, err)
			fragment.Articles.Failed++
			return
		}
		fragment.Articles.Skipped++
		news = existing
	}

	// the fetched symbol gets the stronger link; conflict keeps the
	// first relevance written for the pair
	s.linkStock(ctx, stock.Symbol, stock.ID, news.ID, relevanceDirect, fragment)
	for i := range activeStocks {
		other := &activeStocks[i]
		if other.ID == stock.ID {
			continue
		}
		if articleMentions(article, other) {
			s.linkStock(ctx, stock.Symbol, other.ID, news.ID, relevanceTextMatch, fragment)
		}
	}
}

func (s *etlService) scoreArticle(ctx context.Context, symbol string, news *entity.FinancialNews, fragment *dto.CycleReport) {
	text := news.Title + ". " + news.Content
	primaryModel := s.cfg.Sentiment.PrimaryModel

	for _, scorer := range s.scorers {
		result, err := scorer.Score(ctx, text)
		if err != nil {
			s.recordFailure(ctx, fragment, symbol, dto.StageSentiment, err)
			fragment.Sentiments.Failed++
			continue
		}
		err = s.sentimentRepo.Upsert(ctx, &entity.SentimentAnalysis{
			NewsID:          news.ID,
			SentimentScore:  result.Score,
			SentimentLabel:  result.Label,
			ConfidenceScore: result.Confidence,
			AnalysisModel:   scorer.Model(),
		})
		if err != nil {
			s.recordFailure(ctx, fragment, symbol, dto.StageSentiment, err)
			fragment.Sentiments.Failed++
			continue
		}
		fragment.Sentiments.Inserted++

		if scorer.Model() == primaryModel {
			if err := s.newsRepo.UpdateSentimentLabel(ctx, news.ID, result.Label); err != nil {
				s.log.WarnContext(ctx, "Failed to denormalize sentiment label",
					logger.StringField("symbol", symbol),
					logger.ErrorField(err),
				)
			}
		}
	}
}

func (s *etlService) linkStock(ctx context.Context, symbol string, stockID, newsID uint, relevance float64, fragment *dto.CycleReport) {
	err := s.newsRepo.LinkStock(ctx, &entity.StockNewsRelation{
		StockID:        stockID,
		NewsID:         newsID,
		RelevanceScore: relevance,
	})
	if err != nil {
		s.recordFailure(ctx, fragment, symbol, dto.StageNews, err)
	}
}

func (s *etlService) aggregate(ctx context.Context, stock *entity.Stock, dates []time.Time, fragment *dto.CycleReport) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, date := range dates {
		if err := s.recomputeSummary(ctx, stock, date); err != nil {
			s.recordFailure(ctx, fragment, stock.Symbol, dto.StageAggregate, err)
			fragment.Summaries.Failed++
			continue
		}
		fragment.Summaries.Inserted++
	}
}

// recomputeSummary rebuilds the derived daily aggregate for one date.
// Missing inputs leave the corresponding fields null rather than zero:
// no prior bar means no price change, division by a zero prior close is
// never attempted.
func (s *etlService) recomputeSummary(ctx context.Context, stock *entity.Stock, date time.Time) error {
	bar, err := s.pricesRepo.FindByStockAndDate(ctx, stock.ID, date)
	if err != nil {
		return err
	}
	if bar == nil {
		return apperror.Newf(apperror.Persistence, "no bar for %s on %s", stock.Symbol, date.Format("2006-01-02"))
	}

	summary := &entity.DailyStockSummary{
		StockID:       stock.ID,
		Date:          date,
		VolumeSummary: bar.Volume,
		HighLowSpread: utils.ToPointer(bar.HighPrice - bar.LowPrice),
	}

	prior, err := s.pricesRepo.FindPriorBar(ctx, stock.ID, date)
	if err != nil {
		return err
	}
	if prior != nil {
		summary.PriceChange = utils.ToPointer(bar.ClosePrice - prior.ClosePrice)
		if prior.ClosePrice != 0 {
			percent := (bar.ClosePrice - prior.ClosePrice) / prior.ClosePrice * 100
			summary.PriceChangePercent = utils.ToPointer(percent)
		}
	}

	stats, err := s.summaryRepo.GetDailyNewsStats(ctx, stock.ID, date)
	if err != nil {
		return err
	}
	summary.NewsCount = stats.NewsCount
	summary.AverageSentiment = stats.AverageSentiment

	return s.summaryRepo.Upsert(ctx, summary)
}

const activeStocksCacheKey = "__active_stocks__"

func (s *etlService) activeStocks(ctx context.Context) ([]entity.Stock, error) {
	if cached, ok := s.stockCache.Get(activeStocksCacheKey); ok {
		return cached.([]entity.Stock), nil
	}
	stocks, err := s.stocksRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	s.stockCache.Set(activeStocksCacheKey, stocks, 5*time.Minute)
	return stocks, nil
}

func (s *etlService) recordFailure(ctx context.Context, fragment *dto.CycleReport, symbol, stage string, err error) {
	s.log.ErrorContext(ctx, "Stage failed",
		logger.StringField("symbol", symbol),
		logger.StringField("stage", stage),
		logger.ErrorField(err),
	)
	fragment.Failures = append(fragment.Failures, dto.SymbolFailure{
		Symbol: symbol,
		Stage:  stage,
		Kind:   string(apperror.CodeOf(err)),
		Error:  err.Error(),
	})
}

// articleMentions reports whether the article's text names the stock,
// by symbol or by company name.
func articleMentions(article *dto.ProviderArticle, stock *entity.Stock) bool {
	text := strings.ToLower(article.Title + " " + article.Content)
	if stock.CompanyName != "" && strings.Contains(text, strings.ToLower(stock.CompanyName)) {
		return true
	}
	return containsWord(text, strings.ToLower(stock.Symbol))
}

// containsWord reports whether word occurs in text with non-letter
// boundaries, so symbol "A" does not match every article.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for start := 0; ; {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)
		beforeOK := idx == 0 || !isLetterOrDigit(text[idx-1])
		afterOK := end == len(text) || !isLetterOrDigit(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isLetterOrDigit(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
