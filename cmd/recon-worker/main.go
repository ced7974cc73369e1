package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/supplypulse/supplypulse-backend/internal/reconciliation"
	"github.com/supplypulse/supplypulse-backend/internal/reconworker"
	"github.com/supplypulse/supplypulse-backend/internal/transactions"
	"github.com/supplypulse/supplypulse-backend/pkg/config"
	"github.com/supplypulse/supplypulse-backend/pkg/db"
	"github.com/supplypulse/supplypulse-backend/pkg/idempotency"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
	"github.com/supplypulse/supplypulse-backend/pkg/metrics"
	"github.com/supplypulse/supplypulse-backend/pkg/migrate"
	"github.com/supplypulse/supplypulse-backend/pkg/pubsub"
	"github.com/supplypulse/supplypulse-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "recon-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "recon-worker"

	logg = logger.New(logger.Options{
		ServiceName: "recon-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "failed to close database client", err)
		}
	}()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "failed to close redis client", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	subscription := pubsubClient.BatchSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "batch subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.IdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	reconMetrics := metrics.NewReconMetrics(prometheus.NewRegistry())

	txnRepo := transactions.NewRepository(dbClient.DB())
	reconRepo := reconciliation.NewRepository(dbClient.DB())
	engine := reconciliation.NewService(
		reconRepo,
		txnRepo,
		reconworker.NewAlertPublisher(pubsubClient.AlertPublisher()),
		logg,
		reconMetrics,
		cfg.Reconciliation,
		cfg.Ingest,
	)

	service, err := reconworker.NewService(subscription, reconworker.NewRunHandler(engine), manager, logg)
	requireResource(ctx, logg, "recon worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "recon worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "recon worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
