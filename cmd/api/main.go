package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/supplypulse/supplypulse-backend/api"
	"github.com/supplypulse/supplypulse-backend/api/controllers"
	"github.com/supplypulse/supplypulse-backend/api/routes"
	"github.com/supplypulse/supplypulse-backend/internal/ingest"
	"github.com/supplypulse/supplypulse-backend/internal/reconciliation"
	"github.com/supplypulse/supplypulse-backend/internal/reconworker"
	"github.com/supplypulse/supplypulse-backend/internal/transactions"
	"github.com/supplypulse/supplypulse-backend/pkg/config"
	"github.com/supplypulse/supplypulse-backend/pkg/db"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
	"github.com/supplypulse/supplypulse-backend/pkg/metrics"
	"github.com/supplypulse/supplypulse-backend/pkg/migrate"
	"github.com/supplypulse/supplypulse-backend/pkg/pubsub"
	"github.com/supplypulse/supplypulse-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reconMetrics := metrics.NewReconMetrics(registry)

	txnRepo := transactions.NewRepository(dbClient.DB())
	txnService := transactions.NewService(txnRepo, logg, cfg.Ingest)

	ingestService := ingest.NewService(ingest.NewRegistry(), txnService, logg)

	reconRepo := reconciliation.NewRepository(dbClient.DB())
	reconService := reconciliation.NewService(
		reconRepo,
		txnRepo,
		reconworker.NewAlertPublisher(pubsubClient.AlertPublisher()),
		logg,
		reconMetrics,
		cfg.Reconciliation,
		cfg.Ingest,
	)

	router := routes.New(routes.Deps{
		Cfg:            cfg,
		Logg:           logg,
		Transactions:   txnService,
		Ingest:         ingestService,
		Reconciliation: reconService,
		ReadinessChecks: []controllers.ReadinessCheck{
			{Name: "postgres", Ping: dbClient.Ping},
			{Name: "redis", Ping: redisClient.Ping},
			{Name: "pubsub", Ping: pubsubClient.Ping},
		},
		Metrics: registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := api.NewServer(addr, router)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(runCtx, "shutting down api server")
		if err := server.Shutdown(context.Background()); err != nil {
			logg.Error(runCtx, "shutdown error", err)
		}
	}
}
