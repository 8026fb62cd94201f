package usecase

import (
	"context"
	"fmt"
	"time"

	"WhaleWatch/internal/domain/models"
	drepo "WhaleWatch/internal/domain/repository"
	applogger "WhaleWatch/pkg/logger"
)

// AlertConfig carries the alert classifier knobs.
type AlertConfig struct {
	RankCutoff             int
	MinROI                 float64
	MinPnL                 float64
	MinMedianBet           float64
	MinCopyAmount          float64
	Cooldown               time.Duration
	Staleness              time.Duration
	HourlyLimit            int
	IsolatedMinSize        float64
	IsolatedMinSizeExtreme float64
	IsolatedExtremeLow     float64
	IsolatedExtremeHigh    float64
	ExcludePriceLow        float64
	ExcludePriceHigh       float64
}

// AlertEngine runs both classifiers over one ingested page under a
// shared hourly budget and per-trader cooldowns.
type AlertEngine struct {
	store     drepo.Store
	cooldowns drepo.Cooldowns
	notifier  drepo.Notifier
	metrics   drepo.Metrics
	logger    *applogger.Logger
	cfg       AlertConfig
}

func NewAlertEngine(
	store drepo.Store,
	cooldowns drepo.Cooldowns,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	cfg AlertConfig,
) *AlertEngine {
	return &AlertEngine{
		store:     store,
		cooldowns: cooldowns,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// PageResult reports what one page evaluation produced.
type PageResult struct {
	Created        int
	ExtremeSkipped int
}

// Evaluate classifies the page's trades. The remaining hourly budget is
// read once at page start and threaded as a plain counter: every alert
// produced decrements it, so one page can never overshoot the ceiling
// even though the store was consulted a single time.
func (e *AlertEngine) Evaluate(ctx context.Context, trades []models.Trade, meta models.MetaLookup) (PageResult, error) {
	var res PageResult
	if len(trades) == 0 {
		return res, nil
	}

	used, err := e.store.CountRecentAlerts(ctx, time.Hour)
	if err != nil {
		return res, fmt.Errorf("count recent alerts: %w", err)
	}
	budget := e.cfg.HourlyLimit - used
	if budget <= 0 {
		e.metrics.RecordBudgetExhausted()
		e.logger.Info("alert budget exhausted, skipping page",
			applogger.Int("used", used),
			applogger.Int("limit", e.cfg.HourlyLimit))
		return res, nil
	}

	stats, err := e.store.TraderStats(ctx, traderAddresses(trades))
	if err != nil {
		return res, fmt.Errorf("read ranking snapshot: %w", err)
	}

	var (
		pending    []models.Alert
		byHash     = make(map[string]models.Trade, len(trades))
		candidates []models.IsolatedCandidate
		// traders granted a copyable alert earlier in this page; the
		// cooldown store is only written after insert, so the window
		// must also hold within the page itself
		granted = make(map[string]bool)
	)

	for _, t := range trades {
		byHash[t.TransactionHash] = t

		// near-certain-outcome trades are noise for both classifiers
		if t.Price >= e.cfg.ExcludePriceHigh || t.Price <= e.cfg.ExcludePriceLow {
			res.ExtremeSkipped++
			continue
		}

		if budget <= 0 {
			e.metrics.RecordBudgetExhausted()
			break
		}

		if s, ok := stats[t.Trader]; ok && !granted[t.Trader] && e.copyable(ctx, t, s) {
			granted[t.Trader] = true
			pending = append(pending, models.Alert{
				TradeHash: t.TransactionHash,
				Type:      models.AlertCopyable,
				Message:   e.copyableMessage(t, s, meta),
			})
			budget--
			continue
		}

		if t.Amount >= e.isolatedThreshold(t.Price) {
			candidates = append(candidates, models.IsolatedCandidate{
				TradeHash:   t.TransactionHash,
				Trader:      t.Trader,
				ConditionID: t.ConditionID,
				Amount:      t.Amount,
			})
		}
	}

	if len(candidates) > 0 && budget > 0 {
		confirmed, err := e.store.FilterIsolated(ctx, candidates)
		if err != nil {
			return res, fmt.Errorf("isolated eligibility check: %w", err)
		}
		for _, cand := range candidates {
			if budget <= 0 {
				e.metrics.RecordBudgetExhausted()
				break
			}
			if !confirmed[cand.TradeHash] {
				continue
			}
			t := byHash[cand.TradeHash]
			pending = append(pending, models.Alert{
				TradeHash: t.TransactionHash,
				Type:      models.AlertIsolatedContact,
				Message:   e.isolatedMessage(t, meta),
			})
			budget--
		}
	}

	if len(pending) == 0 {
		return res, nil
	}

	inserted, err := e.store.InsertAlerts(ctx, pending)
	if err != nil {
		return res, fmt.Errorf("insert alerts: %w", err)
	}
	res.Created = len(inserted)

	// only rows the store reports as new go outward; re-runs over an
	// unchanged page therefore never notify twice
	for _, alert := range inserted {
		t := byHash[alert.TradeHash]
		e.metrics.RecordAlert(alert.Type)

		if alert.Type == models.AlertCopyable {
			e.cooldowns.Mark(ctx, t.Trader, e.cfg.Cooldown)
		}

		if err := e.notifier.NotifyAlert(ctx, alert, t, meta[alert.TradeHash]); err != nil {
			e.metrics.RecordError("notify")
			e.logger.Warn("notification failed",
				applogger.String("trade", alert.TradeHash),
				applogger.Error(err))
			continue
		}

		// sent reflects the dispatch outcome, not the intent to dispatch
		if err := e.store.MarkAlertSent(ctx, alert.TradeHash); err != nil {
			e.logger.Warn("mark alert sent failed",
				applogger.String("trade", alert.TradeHash),
				applogger.Error(err))
		}
	}

	return res, nil
}

// copyable applies classifier A: top-K rank with a fresh snapshot,
// profitability gates cleared, and the trader outside their cooldown.
func (e *AlertEngine) copyable(ctx context.Context, t models.Trade, s models.TraderStats) bool {
	if s.Rank <= 0 || s.Rank > e.cfg.RankCutoff {
		return false
	}
	if time.Since(s.ComputedAt) > e.cfg.Staleness {
		return false
	}
	if s.ROI < e.cfg.MinROI || s.RealizedPnL < e.cfg.MinPnL || s.MedianBet < e.cfg.MinMedianBet {
		return false
	}
	if t.Amount < e.cfg.MinCopyAmount {
		return false
	}
	if e.cooldowns.OnCooldown(ctx, t.Trader) {
		return false
	}
	return true
}

// isolatedThreshold is higher when the price sits in the outer band:
// longshot and near-favorite fills need more size to stand out.
func (e *AlertEngine) isolatedThreshold(price float64) float64 {
	if price <= e.cfg.IsolatedExtremeLow || price >= e.cfg.IsolatedExtremeHigh {
		return e.cfg.IsolatedMinSizeExtreme
	}
	return e.cfg.IsolatedMinSize
}

func (e *AlertEngine) copyableMessage(t models.Trade, s models.TraderStats, meta models.MetaLookup) string {
	name := meta.Name(t.TransactionHash, shortAddress(t.Trader))
	return fmt.Sprintf("🐋 %s (#%d, %d-%d, ROI %.0f%%, P/L $%.0f, median bet $%.0f) %s $%.0f %q @ %.2f\n%s",
		name, s.Rank, s.Wins, s.Losses, s.ROI*100, s.RealizedPnL, s.MedianBet,
		t.Side, t.Amount, t.Outcome, t.Price, t.Title)
}

func (e *AlertEngine) isolatedMessage(t models.Trade, meta models.MetaLookup) string {
	name := meta.Name(t.TransactionHash, shortAddress(t.Trader))
	return fmt.Sprintf("📡 Isolated contact: %s %s $%.0f %q @ %.2f in a quiet market\n%s",
		name, t.Side, t.Amount, t.Outcome, t.Price, t.Title)
}

func traderAddresses(trades []models.Trade) []string {
	seen := make(map[string]bool, len(trades))
	out := make([]string, 0, len(trades))
	for _, t := range trades {
		if seen[t.Trader] {
			continue
		}
		seen[t.Trader] = true
		out = append(out, t.Trader)
	}
	return out
}

func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
