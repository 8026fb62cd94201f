package models

import "time"

// Side of a trade as reported by the upstream feed.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Rejection reasons for raw rows that fail validation. Validation is
// exclusive: the first failing check determines the counted reason.
const (
	RejectMissingHash   = "missing_hash"
	RejectMissingMarket = "missing_market"
	RejectMissingTrader = "missing_trader"
	RejectBadTimestamp  = "bad_timestamp"
	RejectBadAmount     = "bad_amount"
	RejectBelowMinimum  = "below_minimum"
)

// RawTrade is one record from the upstream trade feed, every field optional.
type RawTrade struct {
	TransactionHash string  `json:"transactionHash"`
	ConditionID     string  `json:"conditionId"`
	Slug            string  `json:"slug"`
	Title           string  `json:"title"`
	EventSlug       string  `json:"eventSlug"`
	ProxyWallet     string  `json:"proxyWallet"`
	Outcome         string  `json:"outcome"`
	Side            string  `json:"side"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	Timestamp       int64   `json:"timestamp"`
	Name            string  `json:"name"`
	Pseudonym       string  `json:"pseudonym"`
}

// Trade is the canonical persisted trade row. Immutable after insert;
// the transaction hash is the upsert key.
type Trade struct {
	TransactionHash string
	ConditionID     string
	Slug            string
	Title           string
	Trader          string
	Outcome         string
	Side            string
	Amount          float64
	Price           float64
	Timestamp       time.Time
}

// TradeMeta is per-hash display metadata kept only for notification
// formatting. It is never persisted.
type TradeMeta struct {
	TraderName string
	EventSlug  string
}

// MetaLookup maps transaction hash to display metadata for one run.
type MetaLookup map[string]TradeMeta

// Name returns the best display handle recorded for a hash, or the
// address fallback.
func (m MetaLookup) Name(hash, fallback string) string {
	if meta, ok := m[hash]; ok && meta.TraderName != "" {
		return meta.TraderName
	}
	return fallback
}
