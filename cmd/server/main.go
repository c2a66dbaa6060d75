package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/plotsales/internal/config"
	"github.com/mamadbah2/plotsales/internal/repository/mongodb"
	redisrepo "github.com/mamadbah2/plotsales/internal/repository/redis"
	"github.com/mamadbah2/plotsales/internal/repository/sheets"
	"github.com/mamadbah2/plotsales/internal/scheduler"
	"github.com/mamadbah2/plotsales/internal/server/handlers"
	"github.com/mamadbah2/plotsales/internal/server/router"
	ledgersvc "github.com/mamadbah2/plotsales/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/plotsales/internal/service/reporting"
	"github.com/mamadbah2/plotsales/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/plotsales/pkg/clients/whatsapp"
	"github.com/mamadbah2/plotsales/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{Level: cfg.Log.Level, Development: cfg.Log.Development}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildStore(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init ledger store", zap.String("store", cfg.Ledger.Store), zap.Error(err))
	}
	defer closeStore()

	ledgerSvc := ledgersvc.NewService(store, cfg.Ledger, baseLogger.Named("svc.ledger"))

	var aiClient anthropic.Client
	if cfg.AI.AnthropicKey != "" {
		aiClient = anthropic.NewClient(cfg.AI.AnthropicKey, cfg.AI.BaseURL)
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, sales analysis disabled")
	}

	reportingSvc := reportingsvc.NewService(ledgerSvc, aiClient, baseLogger.Named("svc.reporting"))

	salesHandler := handlers.NewSalesHandler(ledgerSvc, reportingSvc, baseLogger.Named("handlers.sales"))

	var archive scheduler.SnapshotArchive
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
		salesHandler.WithSnapshots(mongoRepo)
	} else {
		baseLogger.Info("mongodb uri missing, daily snapshots will not be archived")
	}

	engine := router.New(salesHandler, baseLogger.Named("router"))

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		notifier = whatsappclient.NewClient(cfg.WhatsApp)
	}

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, archive, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Ledger.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (ledgersvc.Store, func(), error) {
	switch cfg.Ledger.Store {
	case config.StoreRedis:
		client, err := redisrepo.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Error("failed to close redis connection", zap.Error(err))
			}
		}
		return redisrepo.NewStore(client, cfg.Redis.Key, log.Named("repo.redis")), closeFn, nil
	default:
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, log.Named("repo.sheets"))
		if err != nil {
			return nil, nil, err
		}
		store := sheets.NewLedgerStore(repo, cfg.Sheets, log.Named("repo.ledger"))
		if err := store.Init(ctx); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
