package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-tracker/internal/tracker/config"
	delivery "stock-tracker/internal/tracker/delivery/http"
	"stock-tracker/internal/tracker/repository"
	"stock-tracker/internal/tracker/sentiment"
	"stock-tracker/internal/tracker/service"
	"stock-tracker/pkg/logger"
	"stock-tracker/pkg/postgres"
	"stock-tracker/pkg/telegram"
	"stock-tracker/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single tracking cycle and exit",
	Run:   runOnce,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run tracking cycles continuously with the ops API",
	Run:   runServe,
}

type application struct {
	cfg       *config.Config
	logger    *logger.Logger
	db        *postgres.DB
	scheduler service.SchedulerService
	cycles    repository.CycleHistoryRepository
	summaries repository.DailySummaryRepository
	stocks    repository.StocksRepository
}

func buildApplication() (*application, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	cleanup := func() {
		if sqlDB, err := db.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = appLogger.Sync()
	}

	stocksRepo := repository.NewStocksRepository(db.DB)
	pricesRepo := repository.NewStockPriceRepository(db.DB)
	ticksRepo := repository.NewStockTickRepository(db.DB)
	newsRepo := repository.NewNewsRepository(db.DB)
	sentimentRepo := repository.NewSentimentRepository(db.DB)
	summaryRepo := repository.NewDailySummaryRepository(db.DB)
	cyclesRepo := repository.NewCycleHistoryRepository(db.DB)

	var priceProvider repository.PriceProvider
	switch cfg.Providers.Price {
	case "alphavantage":
		priceProvider = repository.NewAlphaVantageRepository(cfg, appLogger)
	default:
		priceProvider = repository.NewYahooFinanceRepository(cfg, appLogger)
	}

	var newsProvider repository.NewsProvider
	switch cfg.Providers.News {
	case "marketaux":
		newsProvider = repository.NewMarketauxRepository(cfg, appLogger)
	default:
		newsProvider = repository.NewRSSNewsRepository(cfg, appLogger)
	}

	scorers, err := sentiment.NewScorers(cfg, appLogger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Warn("Failed to initialize Telegram notifier", logger.ErrorField(err))
			notifier = nil
		}
	}

	etlSvc := service.NewETLService(cfg, appLogger,
		priceProvider, newsProvider, scorers,
		stocksRepo, pricesRepo, ticksRepo, newsRepo, sentimentRepo, summaryRepo, cyclesRepo)

	schedulerSvc, err := service.NewSchedulerService(cfg, appLogger, etlSvc, notifier)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &application{
		cfg:       cfg,
		logger:    appLogger,
		db:        db,
		scheduler: schedulerSvc,
		cycles:    cyclesRepo,
		summaries: summaryRepo,
		stocks:    stocksRepo,
	}, cleanup, nil
}

func runOnce(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApplication()
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer cleanup()

	app.logger.Info("Starting one-shot cycle", logger.Field("name", app.cfg.App.Name))

	report, err := app.scheduler.RunOnce(ctx)
	if err != nil {
		app.logger.Error("Cycle failed to run", logger.ErrorField(err))
		cleanup()
		os.Exit(1)
	}
	if report.HasFailures() {
		app.logger.Error("Cycle completed with failures",
			logger.IntField("failures", len(report.Failures)),
		)
		cleanup()
		os.Exit(1)
	}
	app.logger.Info("Cycle completed successfully")
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := buildApplication()
	if err != nil {
		log.Fatalf("Startup failed: %v", err)
	}
	defer cleanup()

	app.logger.Info("Starting tracker service", logger.Field("name", app.cfg.App.Name))

	schedulerDone := startScheduler(ctx, app.logger, app.scheduler)

	e := echo.New()
	e.HideBanner = true

	statusHandler := delivery.NewStatusHandler(app.cycles, app.summaries, app.stocks, app.logger)
	statusHandler.RegisterRoutes(e)

	utils.GoSafe(app.logger, func() {
		addr := fmt.Sprintf(":%d", app.cfg.API.Port)
		app.logger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			app.logger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	})

	<-ctx.Done()

	app.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("Server forced to shutdown", logger.ErrorField(err))
	}

	// an in-flight cycle finishes before the process exits
	<-schedulerDone

	app.logger.Info("Server exiting")
}

// startScheduler runs the scheduler loop in the background. The returned
// channel closes once Start has returned, so shutdown can wait for an
// in-flight cycle to drain instead of abandoning it.
func startScheduler(ctx context.Context, log *logger.Logger, scheduler service.SchedulerService) <-chan struct{} {
	done := make(chan struct{})
	utils.GoSafe(log, func() {
		defer close(done)
		if err := scheduler.Start(ctx); err != nil && err != context.Canceled {
			log.Error("Scheduler stopped unexpectedly", logger.ErrorField(err))
		}
	})
	return done
}

func main() {
	rootCmd := &cobra.Command{Use: "tracker"}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(runCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing tracker CLI: %s\n", err)
		os.Exit(1)
	}
}
