package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WhaleWatch/internal/usecase"
	"WhaleWatch/pkg/cache"
	"WhaleWatch/pkg/config"
	xhttp "WhaleWatch/pkg/http"
	applogger "WhaleWatch/pkg/logger"
	"WhaleWatch/pkg/postgres"
)

// App encapsulates the application lifecycle: the HTTP trigger server
// plus the interval schedulers for ingestion and resolution.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	ingestor   *usecase.Ingestor
	syncer     *usecase.ResolutionSyncer
	pgClient   *postgres.Client
	cacheSvc   cache.Service
	httpServer *xhttp.Server
}

func New(
	cfg *config.Config,
	logger *applogger.Logger,
	ingestor *usecase.Ingestor,
	syncer *usecase.ResolutionSyncer,
	pgClient *postgres.Client,
	cacheSvc cache.Service,
	handler xhttp.Handler,
) *App {
	srv := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(cfg.Metrics.Path),
	)
	return &App{
		cfg:        cfg,
		logger:     logger,
		ingestor:   ingestor,
		syncer:     syncer,
		pgClient:   pgClient,
		cacheSvc:   cacheSvc,
		httpServer: srv,
	}
}

// Run starts the schedulers and the HTTP server and blocks until
// interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start failed", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	go a.ingestLoop(ctx)
	go a.resolutionLoop(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// ingestLoop runs one ingest pass immediately, then on every tick.
// Passes never overlap; the ticker only fires again after the previous
// pass returns.
func (a *App) ingestLoop(ctx context.Context) {
	a.runIngest(ctx)

	ticker := time.NewTicker(a.cfg.Ingest.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runIngest(ctx)
		}
	}
}

func (a *App) runIngest(ctx context.Context) {
	report := a.ingestor.Run(ctx)
	if !report.Success {
		a.logger.Error("ingest run failed", applogger.String("error", report.Error))
	}
}

func (a *App) resolutionLoop(ctx context.Context) {
	mode, err := usecase.ParseSyncMode(a.cfg.Resolution.Mode)
	if err != nil {
		a.logger.Error("invalid resolution mode, scheduler disabled",
			applogger.String("mode", a.cfg.Resolution.Mode))
		return
	}

	ticker := time.NewTicker(a.cfg.Resolution.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.syncer.Run(ctx, mode, ""); err != nil {
				a.logger.Error("resolution sync failed", applogger.Error(err))
			}
		}
	}
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown error", applogger.Error(err))
	}
	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.pgClient != nil {
		a.pgClient.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}
