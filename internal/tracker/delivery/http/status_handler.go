package http

import (
	"net/http"
	"strconv"
	"strings"

	"stock-tracker/internal/tracker/repository"
	"stock-tracker/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StatusHandler serves the ops API: cycle history, daily summaries and
// stock administration.
type StatusHandler struct {
	cyclesRepo  repository.CycleHistoryRepository
	summaryRepo repository.DailySummaryRepository
	stocksRepo  repository.StocksRepository
	logger      *logger.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(cyclesRepo repository.CycleHistoryRepository, summaryRepo repository.DailySummaryRepository, stocksRepo repository.StocksRepository, logger *logger.Logger) *StatusHandler {
	return &StatusHandler{cyclesRepo: cyclesRepo, summaryRepo: summaryRepo, stocksRepo: stocksRepo, logger: logger}
}

// RegisterRoutes registers the ops routes on the Echo instance.
func (h *StatusHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	api := e.Group("/api/v1")
	api.GET("/cycles/latest", h.GetLatestCycle)
	api.GET("/cycles", h.GetRecentCycles)
	api.GET("/stocks/:symbol", h.GetStock)
	api.GET("/stocks/:symbol/summaries", h.GetStockSummaries)
	api.POST("/stocks/:symbol/deactivate", h.DeactivateStock)
}

func (h *StatusHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *StatusHandler) GetLatestCycle(c echo.Context) error {
	history, err := h.cyclesRepo.FindLatest(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get latest cycle", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get latest cycle"})
	}
	if history == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No cycle has run yet"})
	}
	return c.JSON(http.StatusOK, history)
}

func (h *StatusHandler) GetRecentCycles(c echo.Context) error {
	limit := parseLimit(c.QueryParam("limit"), 20)
	histories, err := h.cyclesRepo.FindRecent(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get recent cycles", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get recent cycles"})
	}
	return c.JSON(http.StatusOK, histories)
}

func (h *StatusHandler) GetStock(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	stock, err := h.stocksRepo.FindBySymbol(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Error("Failed to get stock",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get stock"})
	}
	if stock == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Stock not found"})
	}
	return c.JSON(http.StatusOK, stock)
}

// DeactivateStock soft-deletes a stock so future cycles stop linking
// news to it. Historical rows are kept.
func (h *StatusHandler) DeactivateStock(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	stock, err := h.stocksRepo.FindBySymbol(c.Request().Context(), symbol)
	if err != nil {
		h.logger.Error("Failed to get stock",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get stock"})
	}
	if stock == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Stock not found"})
	}
	if err := h.stocksRepo.Deactivate(c.Request().Context(), symbol); err != nil {
		h.logger.Error("Failed to deactivate stock",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to deactivate stock"})
	}
	return c.JSON(http.StatusOK, echo.Map{"symbol": symbol, "is_active": false})
}

func (h *StatusHandler) GetStockSummaries(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Symbol is required"})
	}
	limit := parseLimit(c.QueryParam("limit"), 30)

	summaries, err := h.summaryRepo.FindRecentBySymbol(c.Request().Context(), symbol, limit)
	if err != nil {
		h.logger.Error("Failed to get daily summaries",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get daily summaries"})
	}
	return c.JSON(http.StatusOK, summaries)
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return fallback
	}
	return limit
}
