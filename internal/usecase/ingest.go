package usecase

import (
	"context"
	"fmt"
	"time"

	"WhaleWatch/internal/domain/models"
	drepo "WhaleWatch/internal/domain/repository"
	"WhaleWatch/pkg/cache"
	xhttp "WhaleWatch/pkg/http"
	applogger "WhaleWatch/pkg/logger"
)

// runState is the pagination state machine. Transitions are decided by
// advance so the stop/continue policy is testable on its own.
type runState int

const (
	stateFetching runState = iota
	stateSoftStopped
	stateHardFailed
	stateExhausted
)

func (s runState) String() string {
	switch s {
	case stateFetching:
		return "fetching"
	case stateSoftStopped:
		return "soft_stopped"
	case stateHardFailed:
		return "hard_failed"
	default:
		return "exhausted"
	}
}

// advance classifies one page fetch. A 4xx at the pagination tail is
// soft end-of-data; any other upstream failure is hard. An empty page
// means the feed is exhausted.
func advance(err error, rows int) runState {
	if err != nil {
		if xhttp.IsClientError(err) {
			return stateSoftStopped
		}
		return stateHardFailed
	}
	if rows == 0 {
		return stateExhausted
	}
	return stateFetching
}

// leaderboardCacheKey is the cached ranking view invalidated after each
// run so dashboards pick up recomputed stats.
const leaderboardCacheKey = "leaderboard:top"

// IngestConfig carries the fetcher knobs.
type IngestConfig struct {
	PageSize     int
	MaxPages     int
	MinTradeSize float64
	TakerOnly    bool
}

// Ingestor drives the upstream trade feed page by page: normalize,
// dedupe, persist, register markets, evaluate alerts.
type Ingestor struct {
	feed    drepo.MarketFeed
	store   drepo.Store
	alerts  *AlertEngine
	norm    *Normalizer
	cache   cache.Service
	metrics drepo.Metrics
	logger  *applogger.Logger
	cfg     IngestConfig
}

func NewIngestor(
	feed drepo.MarketFeed,
	store drepo.Store,
	alerts *AlertEngine,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	cfg IngestConfig,
) *Ingestor {
	return &Ingestor{
		feed:    feed,
		store:   store,
		alerts:  alerts,
		norm:    NewNormalizer(cfg.MinTradeSize),
		cache:   cacheSvc,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Run executes one ingestion pass. Pagination is strictly sequential:
// each page's offset depends on the previous page's size.
func (i *Ingestor) Run(ctx context.Context) models.IngestReport {
	start := time.Now()
	report := models.IngestReport{Dropped: make(map[string]int)}
	meta := models.MetaLookup{}

	state := stateFetching
	offset := 0

	for page := 0; page < i.cfg.MaxPages && state == stateFetching; page++ {
		raws, err := i.feed.Trades(ctx, i.cfg.PageSize, offset, i.cfg.MinTradeSize, i.cfg.TakerOnly)
		state = advance(err, len(raws))

		switch state {
		case stateSoftStopped:
			i.logger.Info("upstream signalled end of data",
				applogger.Int("offset", offset),
				applogger.Error(err))
		case stateHardFailed:
			i.metrics.RecordError("fetch")
			report.Error = err.Error()
		case stateExhausted:
		default:
			report.Pages++
			report.Fetched += len(raws)
			i.metrics.RecordTradesFetched(len(raws))
			offset += len(raws)

			pageReport, perr := i.processPage(ctx, raws, meta, &report)
			if perr != nil {
				state = stateHardFailed
				i.metrics.RecordError("store")
				report.Error = perr.Error()
				break
			}
			report.AlertsCreated += pageReport.Created
			report.ExtremeSkipped += pageReport.ExtremeSkipped
		}
	}
	if state == stateFetching {
		state = stateExhausted
	}

	report.State = state.String()
	report.Success = state != stateHardFailed

	if report.Success {
		i.recompute(ctx)
	}

	i.metrics.RecordLatency("ingest_run", time.Since(start).Seconds())
	i.logger.Info("ingestion run finished",
		applogger.String("state", report.State),
		applogger.Int("pages", report.Pages),
		applogger.Int("fetched", report.Fetched),
		applogger.Int("stored", report.Stored),
		applogger.Int("alerts", report.AlertsCreated))
	return report
}

// processPage runs one page through the pipeline. Store errors abort
// the run; row rejections only count.
func (i *Ingestor) processPage(ctx context.Context, raws []models.RawTrade, meta models.MetaLookup, report *models.IngestReport) (PageResult, error) {
	trades := make([]models.Trade, 0, len(raws))
	for _, raw := range raws {
		t, reason := i.norm.Normalize(raw, meta)
		if reason != "" {
			report.Dropped[reason]++
			i.metrics.RecordRowDropped(reason)
			continue
		}
		trades = append(trades, t)
	}
	trades = DedupeTrades(trades)
	if len(trades) == 0 {
		return PageResult{}, nil
	}

	stored, err := i.store.UpsertTrades(ctx, trades)
	if err != nil {
		return PageResult{}, fmt.Errorf("upsert trades: %w", err)
	}
	report.Stored += stored
	i.metrics.RecordTradesStored(stored)

	if err := i.store.EnsureMarkets(ctx, marketRefs(trades), marketTitles(trades)); err != nil {
		return PageResult{}, fmt.Errorf("ensure markets: %w", err)
	}

	return i.alerts.Evaluate(ctx, trades, meta)
}

// recompute triggers the external aggregate procedures. Best effort:
// failures are logged, never fatal.
func (i *Ingestor) recompute(ctx context.Context) {
	if err := i.store.RecomputeTraderStats(ctx); err != nil {
		i.metrics.RecordError("recompute")
		i.logger.Warn("trader stat recompute failed", applogger.Error(err))
	}
	if err := i.store.RefreshLeaderboard(ctx); err != nil {
		i.metrics.RecordError("recompute")
		i.logger.Warn("leaderboard refresh failed", applogger.Error(err))
	}
	if i.cache != nil {
		if err := i.cache.Delete(ctx, leaderboardCacheKey); err != nil {
			i.logger.Warn("leaderboard cache invalidation failed", applogger.Error(err))
		}
	}
}

func marketRefs(trades []models.Trade) []models.MarketRef {
	seen := make(map[string]bool, len(trades))
	refs := make([]models.MarketRef, 0, len(trades))
	for _, t := range trades {
		if seen[t.ConditionID] {
			continue
		}
		seen[t.ConditionID] = true
		refs = append(refs, models.MarketRef{ConditionID: t.ConditionID, Slug: t.Slug})
	}
	return refs
}

func marketTitles(trades []models.Trade) map[string]string {
	titles := make(map[string]string, len(trades))
	for _, t := range trades {
		if t.Title != "" {
			titles[t.ConditionID] = t.Title
		}
	}
	return titles
}
