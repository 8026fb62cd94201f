package di

import (
	"context"
	"fmt"
	"time"

	drepo "WhaleWatch/internal/domain/repository"
	"WhaleWatch/internal/handler/api"
	internalrepo "WhaleWatch/internal/repository"
	"WhaleWatch/internal/service/polymarket"
	"WhaleWatch/internal/service/telegram"
	"WhaleWatch/internal/usecase"
	"WhaleWatch/pkg/cache"
	"WhaleWatch/pkg/config"
	xhttp "WhaleWatch/pkg/http"
	applogger "WhaleWatch/pkg/logger"
	"WhaleWatch/pkg/metrics"
	"WhaleWatch/pkg/postgres"
	"WhaleWatch/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvidePostgresClient creates the Postgres pool and applies the
// schema.
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := postgres.NewClient(ctx,
		postgres.WithHost(cfg.Postgres.Host),
		postgres.WithPort(cfg.Postgres.Port),
		postgres.WithDatabase(cfg.Postgres.Database),
		postgres.WithCredentials(cfg.Postgres.User, cfg.Postgres.Password),
		postgres.WithSSLMode(cfg.Postgres.SSLMode),
		postgres.WithConns(cfg.Postgres.MinConns, cfg.Postgres.MaxConns),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		client.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return client, nil
}

// ProvideCache creates the cache backend: Redis when configured,
// otherwise in-process memory.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(time.Minute), nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisAuth(cfg.Redis.Password, cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideStore creates the Postgres-backed store.
func ProvideStore(client *postgres.Client, cfg *config.Config) drepo.Store {
	return internalrepo.NewPostgresStore(client, cfg.Alerts.TraderTradeWindow)
}

// ProvideCooldowns creates the cache-backed cooldown tracker.
func ProvideCooldowns(cacheSvc cache.Service, logger *applogger.Logger) drepo.Cooldowns {
	return internalrepo.NewCacheCooldowns(cacheSvc, logger)
}

// ProvideMarketFeed creates the venue API client.
func ProvideMarketFeed(cfg *config.Config) drepo.MarketFeed {
	httpClient := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Polymarket.Timeout),
		xhttp.WithUserAgent("whalewatch/1.0"),
	)
	return polymarket.New(cfg.Polymarket.DataAPIURL, cfg.Polymarket.GammaAPIURL, httpClient)
}

// ProvideNotifier creates the Telegram notifier. An empty token yields
// a disabled notifier, so local runs work without credentials.
func ProvideNotifier(cfg *config.Config, logger *applogger.Logger) (drepo.Notifier, error) {
	return telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID, logger)
}

// ProvideAlertEngine creates the alert classifier.
func ProvideAlertEngine(
	store drepo.Store,
	cooldowns drepo.Cooldowns,
	notifier drepo.Notifier,
	m drepo.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.AlertEngine {
	return usecase.NewAlertEngine(store, cooldowns, notifier, m, logger, usecase.AlertConfig{
		RankCutoff:             cfg.Alerts.RankCutoff,
		MinROI:                 cfg.Alerts.MinROI,
		MinPnL:                 cfg.Alerts.MinPnL,
		MinMedianBet:           cfg.Alerts.MinMedianBet,
		MinCopyAmount:          cfg.Alerts.MinCopyAmount,
		Cooldown:               time.Duration(cfg.Alerts.CooldownHours) * time.Hour,
		Staleness:              time.Duration(cfg.Alerts.StalenessHours) * time.Hour,
		HourlyLimit:            cfg.Alerts.HourlyLimit,
		IsolatedMinSize:        cfg.Alerts.IsolatedMinSize,
		IsolatedMinSizeExtreme: cfg.Alerts.IsolatedMinSizeExtreme,
		IsolatedExtremeLow:     cfg.Alerts.IsolatedExtremeLow,
		IsolatedExtremeHigh:    cfg.Alerts.IsolatedExtremeHigh,
		ExcludePriceLow:        cfg.Alerts.ExcludePriceLow,
		ExcludePriceHigh:       cfg.Alerts.ExcludePriceHigh,
	})
}

// ProvideIngestor creates the trade feed ingestor.
func ProvideIngestor(
	feed drepo.MarketFeed,
	store drepo.Store,
	alerts *usecase.AlertEngine,
	cacheSvc cache.Service,
	m drepo.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.Ingestor {
	return usecase.NewIngestor(feed, store, alerts, cacheSvc, m, logger, usecase.IngestConfig{
		PageSize:     cfg.Ingest.PageSize,
		MaxPages:     cfg.Ingest.MaxPages,
		MinTradeSize: cfg.Ingest.MinTradeSize,
		TakerOnly:    cfg.Ingest.TakerOnly,
	})
}

// ProvideResolutionSyncer creates the resolution scheduler.
func ProvideResolutionSyncer(
	feed drepo.MarketFeed,
	store drepo.Store,
	m drepo.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.ResolutionSyncer {
	return usecase.NewResolutionSyncer(feed, store, m, logger, usecase.ResolutionConfig{
		RecheckWindow:  time.Duration(cfg.Resolution.RecheckHours) * time.Hour,
		Lookback:       time.Duration(cfg.Resolution.LookbackDays) * 24 * time.Hour,
		BatchSize:      cfg.Resolution.BatchSize,
		BatchPause:     cfg.Resolution.BatchPause,
		CandidateLimit: cfg.Resolution.CandidateLimit,
		LeaguePrefixes: cfg.Resolution.LeaguePrefixes,
	})
}

// ProvideHTTPHandler creates the run-trigger API handler.
func ProvideHTTPHandler(
	ingestor *usecase.Ingestor,
	syncer *usecase.ResolutionSyncer,
	store drepo.Store,
	logger *applogger.Logger,
) xhttp.Handler {
	return api.NewRunHandler(ingestor, syncer, store, logger)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	ingestor *usecase.Ingestor,
	syncer *usecase.ResolutionSyncer,
	pgClient *postgres.Client,
	cacheSvc cache.Service,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, logger, ingestor, syncer, pgClient, cacheSvc, handler)
}
