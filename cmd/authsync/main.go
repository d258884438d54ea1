package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-authsync/internal/auth0"
	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser"
	"github.com/ovaphlow/pitchfork/service-authsync/internal/config"
	"github.com/ovaphlow/pitchfork/service-authsync/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-authsync/internal/syncer"
	"github.com/ovaphlow/pitchfork/service-authsync/pkg/database"
	"github.com/ovaphlow/pitchfork/service-authsync/pkg/utilities"
)

func main() {
	// best-effort: real environment wins when no .env exists
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, sugar); err != nil {
		lg.Sync()
		sugar.Fatalf("sync: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) error {
	sink, closeSink, err := openSink(ctx, cfg, sugar)
	if err != nil {
		return err
	}
	defer closeSink()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	tokens := auth0.NewTokenFetcher(cfg.APIBaseURL(), cfg.Audience(), cfg.ClientID, cfg.ClientSecret, httpClient, sugar)
	api := auth0.NewClient(cfg.APIBaseURL(),
		auth0.WithHTTPClient(httpClient),
		auth0.WithLogger(sugar),
		auth0.WithPageSize(cfg.PageSize),
		auth0.WithLogsPerUser(cfg.LogsPerUser),
	)
	normalizer := authuser.NewNormalizer(authuser.DefaultCompanyRules(cfg.OrgDomains))

	m := metrics.New()
	runID := utilities.NewSnowflakeID(cfg.SnowflakeNode)
	sugar.Infow("starting auth sync",
		"run_id", runID,
		"domain", cfg.Domain,
		"sink", cfg.Sink,
		"delay", cfg.RateLimitDelay.String(),
		"strict", cfg.StrictFetch,
	)

	runner := syncer.NewRunner(tokens, api, sink, normalizer,
		syncer.WithRunID(runID),
		syncer.WithDelay(cfg.RateLimitDelay),
		syncer.WithStrictFetch(cfg.StrictFetch),
		syncer.WithLogger(sugar),
		syncer.WithMetrics(m),
	)
	_, runErr := runner.Run(ctx)

	if cfg.PushgatewayURL != "" {
		// the run context may already be canceled
		pushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.Push(pushCtx, cfg.PushgatewayURL, cfg.Domain); err != nil {
			sugar.Warnf("push metrics: %v", err)
		}
	}
	return runErr
}

func openSink(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) (*authuser.Service, func(), error) {
	switch cfg.Sink {
	case config.SinkRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		sugar.Infow("using redis sink", "addr", cfg.RedisAddr)
		return authuser.NewRedisService(rdb), func() { _ = rdb.Close() }, nil
	default:
		db, err := database.Open(ctx, database.ConfigFromEnv())
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		sugar.Info("using postgres sink")
		return authuser.NewService(db, nil, nil), func() { _ = db.Close() }, nil
	}
}
