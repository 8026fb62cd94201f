package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"WhaleWatch/internal/domain/models"
	drepo "WhaleWatch/internal/domain/repository"
	applogger "WhaleWatch/pkg/logger"
	"WhaleWatch/pkg/util"
)

// SyncMode selects the candidate strategy for one reconciliation pass.
type SyncMode string

const (
	// ModeRecent re-checks markets referenced by recent trades.
	ModeRecent SyncMode = "recent"
	// ModeDue re-checks markets whose last check is older than the
	// recheck window, oldest first. Markets that stop trading long
	// before upstream resolves them are only covered by this mode.
	ModeDue SyncMode = "due"
	// ModeAll is a full backfill, oldest-checked first.
	ModeAll SyncMode = "all"
	// ModeEventsRecent resolves whole events reconstructed from recent
	// league-prefixed market slugs, one upstream lookup per event.
	ModeEventsRecent SyncMode = "events_recent"
	// ModeMarket targets a single market.
	ModeMarket SyncMode = "market"
	// ModeEvent targets a single event.
	ModeEvent SyncMode = "event"
)

// ParseSyncMode validates a mode string.
func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case ModeRecent, ModeDue, ModeAll, ModeEventsRecent, ModeMarket, ModeEvent:
		return SyncMode(s), nil
	}
	return "", fmt.Errorf("unknown sync mode %q", s)
}

type checkOutcome int

const (
	outcomeResolved checkOutcome = iota
	outcomeTouched
	outcomeSkipped
	outcomeFailed
)

// ResolutionConfig carries the scheduler knobs.
type ResolutionConfig struct {
	RecheckWindow  time.Duration
	Lookback       time.Duration
	BatchSize      int
	BatchPause     time.Duration
	CandidateLimit int
	LeaguePrefixes []string
}

// ResolutionSyncer selects candidate markets by mode and drives the
// decision engine against them, writing verdicts back.
type ResolutionSyncer struct {
	feed    drepo.MarketFeed
	store   drepo.Store
	metrics drepo.Metrics
	logger  *applogger.Logger
	cfg     ResolutionConfig
}

func NewResolutionSyncer(
	feed drepo.MarketFeed,
	store drepo.Store,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	cfg ResolutionConfig,
) *ResolutionSyncer {
	return &ResolutionSyncer{
		feed:    feed,
		store:   store,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Run executes one reconciliation pass. target is the market or event
// slug for the direct modes and ignored otherwise.
func (r *ResolutionSyncer) Run(ctx context.Context, mode SyncMode, target string) (models.SyncReport, error) {
	start := time.Now()
	report := models.SyncReport{Mode: string(mode)}

	switch mode {
	case ModeEventsRecent:
		slugs, err := r.store.RecentMarketSlugs(ctx, time.Now().Add(-r.cfg.Lookback), r.cfg.CandidateLimit)
		if err != nil {
			return report, fmt.Errorf("recent market slugs: %w", err)
		}
		for _, eventSlug := range r.leagueEventSlugs(slugs) {
			r.syncEvent(ctx, eventSlug, &report)
		}

	case ModeEvent:
		r.syncEvent(ctx, target, &report)

	case ModeMarket:
		r.checkBatches(ctx, []models.MarketRef{{ConditionID: target, Slug: target}}, &report)

	default:
		refs, err := r.candidates(ctx, mode)
		if err != nil {
			return report, err
		}
		r.checkBatches(ctx, refs, &report)
	}

	r.metrics.RecordLatency("resolution_sync", time.Since(start).Seconds())
	r.logger.Info("resolution sync finished",
		applogger.String("mode", string(mode)),
		applogger.Int("checked", report.Checked),
		applogger.Int("resolved", report.Resolved),
		applogger.Int("touched", report.Touched),
		applogger.Int("skipped", report.Skipped),
		applogger.Int("failed", report.Failed))
	return report, nil
}

func (r *ResolutionSyncer) candidates(ctx context.Context, mode SyncMode) ([]models.MarketRef, error) {
	switch mode {
	case ModeRecent:
		refs, err := r.store.RecentTradeMarkets(ctx, time.Now().Add(-r.cfg.Lookback), r.cfg.CandidateLimit)
		if err != nil {
			return nil, fmt.Errorf("recent trade markets: %w", err)
		}
		// placeholder rows must exist before verdicts are written back
		if err := r.store.EnsureMarkets(ctx, refs, nil); err != nil {
			return nil, fmt.Errorf("ensure markets: %w", err)
		}
		return refs, nil
	case ModeDue:
		refs, err := r.store.DueMarkets(ctx, time.Now().Add(-r.cfg.RecheckWindow), r.cfg.CandidateLimit)
		if err != nil {
			return nil, fmt.Errorf("due markets: %w", err)
		}
		return refs, nil
	case ModeAll:
		refs, err := r.store.AllMarkets(ctx, r.cfg.CandidateLimit)
		if err != nil {
			return nil, fmt.Errorf("all markets: %w", err)
		}
		return refs, nil
	}
	return nil, fmt.Errorf("mode %q has no candidate query", mode)
}

// checkBatches runs candidates in bounded fork/join batches with a
// pause in between to respect upstream pacing.
func (r *ResolutionSyncer) checkBatches(ctx context.Context, refs []models.MarketRef, report *models.SyncReport) {
	for start := 0; start < len(refs); start += r.cfg.BatchSize {
		end := start + r.cfg.BatchSize
		if end > len(refs) {
			end = len(refs)
		}
		batch := refs[start:end]

		outcomes := make([]checkOutcome, len(batch))
		var wg sync.WaitGroup
		for idx, ref := range batch {
			wg.Add(1)
			go func(idx int, ref models.MarketRef) {
				defer wg.Done()
				outcomes[idx] = r.checkMarket(ctx, ref)
			}(idx, ref)
		}
		wg.Wait()

		for _, outcome := range outcomes {
			report.Checked++
			r.count(outcome, report)
		}

		if end < len(refs) && r.cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.cfg.BatchPause):
			}
		}
	}
}

func (r *ResolutionSyncer) count(outcome checkOutcome, report *models.SyncReport) {
	switch outcome {
	case outcomeResolved:
		report.Resolved++
		r.metrics.RecordMarketResolved()
	case outcomeTouched:
		report.Touched++
		r.metrics.RecordMarketTouched()
	case outcomeSkipped:
		report.Skipped++
	case outcomeFailed:
		report.Failed++
		r.metrics.RecordError("resolution_check")
	}
}

// checkMarket looks the descriptor up by slug first, falls back to the
// condition id, and applies the verdict. A missing descriptor is a
// skip, not an error.
func (r *ResolutionSyncer) checkMarket(ctx context.Context, ref models.MarketRef) checkOutcome {
	desc, err := r.lookup(ctx, ref)
	if err != nil {
		r.logger.Warn("descriptor lookup failed",
			applogger.String("market", ref.ConditionID),
			applogger.Error(err))
		return outcomeFailed
	}
	if desc == nil {
		return outcomeSkipped
	}
	return r.apply(ctx, ref, desc)
}

func (r *ResolutionSyncer) lookup(ctx context.Context, ref models.MarketRef) (*models.MarketDescriptor, error) {
	if ref.Slug != "" {
		desc, err := r.feed.MarketBySlug(ctx, ref.Slug)
		if err != nil {
			return nil, err
		}
		if desc != nil {
			return desc, nil
		}
	}
	if ref.ConditionID != "" {
		descs, err := r.feed.MarketsByConditionIDs(ctx, []string{ref.ConditionID})
		if err != nil {
			return nil, err
		}
		if len(descs) > 0 {
			return &descs[0], nil
		}
	}
	return nil, nil
}

// apply persists the verdict. Only a verdict carrying both the
// resolved flag and a winner is written as a resolution; everything
// else just rotates the market to the back of the due queue.
func (r *ResolutionSyncer) apply(ctx context.Context, ref models.MarketRef, desc *models.MarketDescriptor) checkOutcome {
	conditionID := desc.ConditionID
	if conditionID == "" {
		conditionID = ref.ConditionID
	}
	if conditionID == "" {
		return outcomeSkipped
	}

	v := Decide(desc)
	if v.IsResolved && v.WinningOutcome != nil {
		resolvedAt := util.ParseTimeDefault(desc.ClosedTime, util.ParseTimeDefault(desc.EndDate, time.Now())).UTC()
		if err := r.store.SaveResolution(ctx, conditionID, *v.WinningOutcome, desc.Slug, desc.Question, resolvedAt); err != nil {
			r.logger.Warn("save resolution failed",
				applogger.String("market", conditionID),
				applogger.Error(err))
			return outcomeFailed
		}
		r.logger.Info("market resolved",
			applogger.String("market", conditionID),
			applogger.String("winner", *v.WinningOutcome),
			applogger.Bool("explicit", v.ExplicitWinner),
			applogger.Bool("price_settled", v.PriceSettled))
		return outcomeResolved
	}

	if v.IsResolved {
		// resolved upstream but no winner surfaced yet; leave it for a
		// later pass rather than guessing
		r.logger.Info("resolved without winner",
			applogger.String("market", conditionID),
			applogger.String("slug", desc.Slug))
	}
	if err := r.store.TouchMarketChecked(ctx, conditionID, desc.Slug, desc.Question); err != nil {
		r.logger.Warn("touch market failed",
			applogger.String("market", conditionID),
			applogger.Error(err))
		return outcomeFailed
	}
	return outcomeTouched
}

// syncEvent resolves every market in one event with a single upstream
// lookup; cheaper than per-market lookups for multi-leg events.
func (r *ResolutionSyncer) syncEvent(ctx context.Context, eventSlug string, report *models.SyncReport) {
	ev, err := r.feed.EventBySlug(ctx, eventSlug)
	if err != nil {
		r.logger.Warn("event lookup failed",
			applogger.String("event", eventSlug),
			applogger.Error(err))
		report.Checked++
		report.Failed++
		r.metrics.RecordError("resolution_check")
		return
	}
	if ev == nil {
		report.Checked++
		report.Skipped++
		return
	}
	for idx := range ev.Markets {
		desc := &ev.Markets[idx]
		report.Checked++
		r.count(r.apply(ctx, models.MarketRef{ConditionID: desc.ConditionID, Slug: desc.Slug}, desc), report)
	}
}

// leagueEventSlugs keeps slugs matching a configured league prefix and
// deduplicates at the event level. Game market slugs double as event
// slugs on the venue.
func (r *ResolutionSyncer) leagueEventSlugs(slugs []string) []string {
	seen := make(map[string]bool, len(slugs))
	out := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		if !r.hasLeaguePrefix(slug) || seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, slug)
	}
	return out
}

func (r *ResolutionSyncer) hasLeaguePrefix(slug string) bool {
	for _, prefix := range r.cfg.LeaguePrefixes {
		if strings.HasPrefix(slug, prefix+"-") {
			return true
		}
	}
	return false
}
