package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
	"github.com/kitabu-erp/kitabu/internal/accounting/mappings"
	"github.com/kitabu-erp/kitabu/internal/accounting/reports"
	"github.com/kitabu-erp/kitabu/internal/app"
	"github.com/kitabu-erp/kitabu/internal/documents"
	"github.com/kitabu-erp/kitabu/internal/observability"
	"github.com/kitabu-erp/kitabu/internal/platform/cache"
	"github.com/kitabu-erp/kitabu/internal/platform/db"
	"github.com/kitabu-erp/kitabu/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo)
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	mappingsRepo := mappings.NewRepository(dbpool)
	mappingsService := mappings.NewService(mappingsRepo, accountsService)
	mappingsHandler := mappings.NewHandler(logger, mappingsService)

	documentsRepo := documents.NewRepository(dbpool)
	documentsService := documents.NewService(documentsRepo).WithObserver(metrics)
	documentsHandler := documents.NewHandler(logger, documentsService)

	reportsService := reports.NewService(logger, accountsRepo, ledgerRepo)
	if redisClient != nil {
		reportsService.WithCache(redisClient, cfg.ReportCacheTTL)
	}
	reportsHandler := reports.NewHandler(logger, reportsService)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AccountsHandler:  accountsHandler,
		LedgerHandler:    ledgerHandler,
		MappingsHandler:  mappingsHandler,
		DocumentsHandler: documentsHandler,
		ReportsHandler:   reportsHandler,
		Metrics:          metrics,
	})

	// Warm last month's balance sheets on startup so the first report
	// requests hit the cache.
	if redisClient != nil {
		jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			logger.Warn("jobs client", slog.Any("error", err))
		} else {
			defer jobsClient.Close()
			if _, err := jobsClient.EnqueueReportsWarmup(ctx, jobs.WarmupPayload{}); err != nil {
				logger.Warn("enqueue report warmup", slog.Any("error", err))
			}
		}
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
