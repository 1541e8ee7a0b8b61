package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/blob"
	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/ticketnumber"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
	} else {
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var reportCache cache.ReportCache = cache.Noop{}
	if redis.Enabled() && cfg.Reports.CacheTTL() > 0 {
		reportCache = cache.NewRedisReportCache(redis.Client, cfg.Reports.CacheTTL())
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(dispatcher, logger)

	evaluator, err := access.NewEvaluator()
	if err != nil {
		logger.Fatal("failed to load access policy", zap.Error(err))
	}
	loc := cfg.App.Location()
	machine := lifecycle.NewMachine(ticketnumber.NewGenerator(store.Tickets(), cfg.Tickets.NumberMaxAttempts), nil)

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Evaluator:  evaluator,
		Machine:    machine,
		Blobs:      blob.NewMemoryStore(),
		Dispatcher: dispatcher,
		Logger:     logger,
		Config:     cfg.Tickets,
		Location:   loc,
	})
	bulkService := service.NewBulkService(service.BulkDependencies{
		Store:      store,
		Evaluator:  evaluator,
		Machine:    machine,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	reportService := service.NewReportService(service.ReportDependencies{
		Store:     store,
		Evaluator: evaluator,
		Cache:     reportCache,
		Logger:    logger,
		Config:    cfg.Reports,
		Location:  loc,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName:        cfg.App.Name,
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
	}, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService, loc),
		Bulk:           handlers.NewBulkHandler(bulkService),
		Reports:        handlers.NewReportsHandler(reportService, loc),
		Reference:      handlers.NewReferenceHandler(service.NewReferenceService(store)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Profiles()),
	})

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
