package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-tracker/internal/entity"
	"stock-tracker/internal/tracker/dto"
	"stock-tracker/internal/tracker/repository"
	"stock-tracker/pkg/logger"
)

type fakeCycleRepo struct {
	latest *entity.ETLCycleHistory
	recent []entity.ETLCycleHistory
}

func (r *fakeCycleRepo) Create(context.Context, *entity.ETLCycleHistory) error { return nil }
func (r *fakeCycleRepo) Update(context.Context, *entity.ETLCycleHistory) error { return nil }
func (r *fakeCycleRepo) FindLatest(context.Context) (*entity.ETLCycleHistory, error) {
	return r.latest, nil
}
func (r *fakeCycleRepo) FindRecent(_ context.Context, limit int) ([]entity.ETLCycleHistory, error) {
	if limit < len(r.recent) {
		return r.recent[:limit], nil
	}
	return r.recent, nil
}

type fakeSummaryRepo struct {
	summaries []entity.DailyStockSummary
	symbol    string
	limit     int
}

func (r *fakeSummaryRepo) Upsert(context.Context, *entity.DailyStockSummary) error { return nil }
func (r *fakeSummaryRepo) GetDailyNewsStats(context.Context, uint, time.Time) (*repository.DailyNewsStats, error) {
	return &repository.DailyNewsStats{}, nil
}
func (r *fakeSummaryRepo) FindRecentBySymbol(_ context.Context, symbol string, limit int) ([]entity.DailyStockSummary, error) {
	r.symbol = symbol
	r.limit = limit
	return r.summaries, nil
}

type fakeStocksRepo struct {
	stocks      map[string]*entity.Stock
	deactivated []string
}

func (r *fakeStocksRepo) GetActive(context.Context) ([]entity.Stock, error) { return nil, nil }
func (r *fakeStocksRepo) FindBySymbol(_ context.Context, symbol string) (*entity.Stock, error) {
	return r.stocks[symbol], nil
}
func (r *fakeStocksRepo) EnsureStock(context.Context, string) (*entity.Stock, bool, error) {
	return nil, false, nil
}
func (r *fakeStocksRepo) UpdateProfile(context.Context, uint, *dto.CompanyProfile) error {
	return nil
}
func (r *fakeStocksRepo) Deactivate(_ context.Context, symbol string) error {
	r.deactivated = append(r.deactivated, symbol)
	return nil
}

func newTestHandler(t *testing.T, cycles *fakeCycleRepo, summaries *fakeSummaryRepo, stocks *fakeStocksRepo) *StatusHandler {
	t.Helper()
	log, err := logger.New("error", "json")
	require.NoError(t, err)
	return NewStatusHandler(cycles, summaries, stocks, log)
}

func doRequest(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGetLatestCycle(t *testing.T) {
	cycles := &fakeCycleRepo{latest: &entity.ETLCycleHistory{ID: 7, Mode: "continuous", Status: entity.CycleStatusCompleted}}
	h := newTestHandler(t, cycles, &fakeSummaryRepo{}, &fakeStocksRepo{})

	e := echo.New()
	h.RegisterRoutes(e)
	rec := doRequest(e, http.MethodGet, "/api/v1/cycles/latest")

	require.Equal(t, http.StatusOK, rec.Code)
	var got entity.ETLCycleHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, entity.CycleStatusCompleted, got.Status)
}

func TestGetLatestCycleNotFound(t *testing.T) {
	h := newTestHandler(t, &fakeCycleRepo{}, &fakeSummaryRepo{}, &fakeStocksRepo{})

	e := echo.New()
	h.RegisterRoutes(e)
	rec := doRequest(e, http.MethodGet, "/api/v1/cycles/latest")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStockSummariesLimit(t *testing.T) {
	summaries := &fakeSummaryRepo{summaries: []entity.DailyStockSummary{{StockID: 1}}}
	h := newTestHandler(t, &fakeCycleRepo{}, summaries, &fakeStocksRepo{})

	e := echo.New()
	h.RegisterRoutes(e)
	rec := doRequest(e, http.MethodGet, "/api/v1/stocks/AAPL/summaries?limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AAPL", summaries.symbol)
	assert.Equal(t, 5, summaries.limit)
}

func TestGetStock(t *testing.T) {
	stocks := &fakeStocksRepo{stocks: map[string]*entity.Stock{
		"AAPL": {ID: 1, Symbol: "AAPL", CompanyName: "Apple Inc.", IsActive: true},
	}}
	h := newTestHandler(t, &fakeCycleRepo{}, &fakeSummaryRepo{}, stocks)

	e := echo.New()
	h.RegisterRoutes(e)

	rec := doRequest(e, http.MethodGet, "/api/v1/stocks/aapl")
	require.Equal(t, http.StatusOK, rec.Code)
	var got entity.Stock
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "AAPL", got.Symbol)

	rec = doRequest(e, http.MethodGet, "/api/v1/stocks/MSFT")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeactivateStock(t *testing.T) {
	stocks := &fakeStocksRepo{stocks: map[string]*entity.Stock{
		"AAPL": {ID: 1, Symbol: "AAPL", IsActive: true},
	}}
	h := newTestHandler(t, &fakeCycleRepo{}, &fakeSummaryRepo{}, stocks)

	e := echo.New()
	h.RegisterRoutes(e)

	rec := doRequest(e, http.MethodPost, "/api/v1/stocks/AAPL/deactivate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"AAPL"}, stocks.deactivated)

	rec = doRequest(e, http.MethodPost, "/api/v1/stocks/TSLA/deactivate")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, stocks.deactivated, 1)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 20, parseLimit("", 20))
	assert.Equal(t, 50, parseLimit("50", 20))
	assert.Equal(t, 20, parseLimit("0", 20))
	assert.Equal(t, 20, parseLimit("-3", 20))
	assert.Equal(t, 20, parseLimit("9999", 20))
	assert.Equal(t, 20, parseLimit("abc", 20))
}
