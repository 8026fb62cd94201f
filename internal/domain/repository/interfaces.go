package repository

import (
	"context"
	"time"

	"WhaleWatch/internal/domain/models"
)

// MarketFeed is the upstream venue API: the paginated trade feed plus
// market and event descriptor lookups.
type MarketFeed interface {
	// Trades fetches one page of the trade feed. A 4xx answer surfaces
	// as a StatusError so the caller can treat it as soft end-of-data.
	Trades(ctx context.Context, limit, offset int, minAmount float64, takerOnly bool) ([]models.RawTrade, error)

	MarketBySlug(ctx context.Context, slug string) (*models.MarketDescriptor, error)
	MarketsByConditionIDs(ctx context.Context, ids []string) ([]models.MarketDescriptor, error)
	EventBySlug(ctx context.Context, slug string) (*models.EventDescriptor, error)
}

// Store is the persisted store. Every write is an idempotent key-based
// upsert; that is the system's entire consistency discipline.
type Store interface {
	UpsertTrades(ctx context.Context, trades []models.Trade) (int, error)
	EnsureMarkets(ctx context.Context, refs []models.MarketRef, titles map[string]string) error

	SaveResolution(ctx context.Context, conditionID, winningOutcome, slug, question string, resolvedAt time.Time) error
	TouchMarketChecked(ctx context.Context, conditionID, slug, question string) error

	RecentTradeMarkets(ctx context.Context, since time.Time, limit int) ([]models.MarketRef, error)
	DueMarkets(ctx context.Context, checkedBefore time.Time, limit int) ([]models.MarketRef, error)
	AllMarkets(ctx context.Context, limit int) ([]models.MarketRef, error)
	RecentMarketSlugs(ctx context.Context, since time.Time, limit int) ([]string, error)

	// InsertAlerts upserts with ignore-duplicates and returns only the
	// rows that were actually inserted.
	InsertAlerts(ctx context.Context, alerts []models.Alert) ([]models.Alert, error)
	MarkAlertSent(ctx context.Context, tradeHash string) error
	CountRecentAlerts(ctx context.Context, window time.Duration) (int, error)

	TraderStats(ctx context.Context, addresses []string) (map[string]models.TraderStats, error)
	FilterIsolated(ctx context.Context, candidates []models.IsolatedCandidate) (map[string]bool, error)

	RecomputeTraderStats(ctx context.Context) error
	RefreshLeaderboard(ctx context.Context) error

	Health(ctx context.Context) error
	Close() error
}

// Notifier is the outward notification channel: it derives a deep link
// from the trade metadata and sends the alert message. Failures are the
// caller's to log and swallow.
type Notifier interface {
	NotifyAlert(ctx context.Context, alert models.Alert, trade models.Trade, meta models.TradeMeta) error
}

// Cooldowns tracks per-trader alert cooldown marks.
type Cooldowns interface {
	OnCooldown(ctx context.Context, trader string) bool
	Mark(ctx context.Context, trader string, window time.Duration)
}

type Metrics interface {
	RecordTradesFetched(n int)
	RecordTradesStored(n int)
	RecordRowDropped(reason string)
	RecordAlert(alertType string)
	RecordBudgetExhausted()
	RecordMarketResolved()
	RecordMarketTouched()
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
