package models

import "time"

// Alert types. At most one alert exists per trade hash.
const (
	AlertCopyable        = "copyable"
	AlertIsolatedContact = "isolated_contact"
)

// Alert is the persisted alert row, keyed by trade hash. Inserted with
// upsert-ignore-duplicates; a row is known to be new only when the
// insert reports it back.
type Alert struct {
	TradeHash string
	Type      string
	Message   string
	Sent      bool
	CreatedAt time.Time
}

// TraderStats is one trader's row from the ranking snapshot. The
// snapshot is external and read-only; ComputedAt gates staleness.
type TraderStats struct {
	Address     string
	Rank        int
	ROI         float64
	RealizedPnL float64
	MedianBet   float64
	Wins        int
	Losses      int
	ComputedAt  time.Time
}

// IsolatedCandidate is one (trader, market, size) triple submitted to
// the batched isolation eligibility check.
type IsolatedCandidate struct {
	TradeHash   string
	Trader      string
	ConditionID string
	Amount      float64
}
