package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
	"github.com/kitabu-erp/kitabu/internal/accounting/reports"
	"github.com/kitabu-erp/kitabu/internal/app"
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
		logger.Warn("redis unavailable, warmups build without caching", slog.Any("error", err))
		redisClient = nil
	}

	metrics := observability.NewMetrics()

	accountsRepo := accounts.NewRepository(dbpool)
	ledgerRepo := ledger.NewRepository(dbpool)
	reportsService := reports.NewService(logger, accountsRepo, ledgerRepo)
	if redisClient != nil {
		reportsService.WithCache(redisClient, cfg.ReportCacheTTL)
	}

	integrityStore := jobs.NewIntegrityStore(dbpool)
	orgSource := jobs.NewOrgSource(dbpool)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerIntegrity, Handler: jobs.HandleLedgerIntegrity(logger, integrityStore, metrics)},
			{Type: jobs.TaskReportsWarmup, Handler: jobs.HandleReportsWarmup(logger, orgSource, reportsService)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 * * * *", Task: jobs.NewLedgerIntegrityTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
