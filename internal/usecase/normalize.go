package usecase

import (
	"math"
	"strings"
	"time"

	"WhaleWatch/internal/domain/models"
)

// Normalizer turns raw upstream rows into canonical trade rows or
// rejects them with exactly one reason. The check order is significant:
// the first failing check owns the counted reason.
type Normalizer struct {
	minTradeSize float64
}

func NewNormalizer(minTradeSize float64) *Normalizer {
	return &Normalizer{minTradeSize: minTradeSize}
}

// Normalize validates one raw record. On success it returns the
// canonical trade and records display metadata for the hash in meta.
// On failure it returns the rejection reason.
func (n *Normalizer) Normalize(raw models.RawTrade, meta models.MetaLookup) (models.Trade, string) {
	if raw.TransactionHash == "" {
		return models.Trade{}, models.RejectMissingHash
	}
	if raw.ConditionID == "" {
		return models.Trade{}, models.RejectMissingMarket
	}
	if raw.ProxyWallet == "" {
		return models.Trade{}, models.RejectMissingTrader
	}
	if raw.Timestamp <= 0 {
		return models.Trade{}, models.RejectBadTimestamp
	}

	amount := raw.Size * raw.Price
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Trade{}, models.RejectBadAmount
	}
	if amount < n.minTradeSize {
		return models.Trade{}, models.RejectBelowMinimum
	}

	if meta != nil {
		name := raw.Name
		if name == "" {
			name = raw.Pseudonym
		}
		meta[raw.TransactionHash] = models.TradeMeta{
			TraderName: name,
			EventSlug:  raw.EventSlug,
		}
	}

	return models.Trade{
		TransactionHash: raw.TransactionHash,
		ConditionID:     raw.ConditionID,
		Slug:            raw.Slug,
		Title:           raw.Title,
		Trader:          strings.ToLower(raw.ProxyWallet),
		Outcome:         raw.Outcome,
		Side:            normalizeSide(raw.Side),
		Amount:          amount,
		Price:           raw.Price,
		Timestamp:       time.Unix(raw.Timestamp, 0).UTC(),
	}, ""
}

// normalizeSide maps the upstream side to BUY/SELL, defaulting to BUY.
func normalizeSide(side string) string {
	if strings.EqualFold(side, models.SideSell) {
		return models.SideSell
	}
	return models.SideBuy
}

// DedupeTrades collapses rows sharing a transaction hash within one
// page, keeping the first occurrence. A single upsert statement cannot
// apply two conflicting updates to the same key; cross-page dedup is
// the upsert itself.
func DedupeTrades(trades []models.Trade) []models.Trade {
	if len(trades) < 2 {
		return trades
	}
	seen := make(map[string]bool, len(trades))
	out := trades[:0]
	for _, t := range trades {
		if seen[t.TransactionHash] {
			continue
		}
		seen[t.TransactionHash] = true
		out = append(out, t)
	}
	return out
}
