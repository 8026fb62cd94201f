package usecase

import (
	"math"
	"testing"
	"time"

	"WhaleWatch/internal/domain/models"
)

func validRaw() models.RawTrade {
	return models.RawTrade{
		TransactionHash: "0xabc",
		ConditionID:     "cond-1",
		Slug:            "game-1",
		Title:           "Game 1",
		EventSlug:       "nba-lal-bos-2026-01-01",
		ProxyWallet:     "0xWALLET",
		Outcome:         "Yes",
		Side:            "buy",
		Size:            4000,
		Price:           0.5,
		Timestamp:       1756700000,
		Name:            "whale",
	}
}

func TestNormalizeValid(t *testing.T) {
	n := NewNormalizer(1000)
	meta := models.MetaLookup{}

	got, reason := n.Normalize(validRaw(), meta)
	if reason != "" {
		t.Fatalf("unexpected rejection %q", reason)
	}
	if got.Amount != 2000 {
		t.Fatalf("amount = %v, want 2000", got.Amount)
	}
	if got.Trader != "0xwallet" {
		t.Fatalf("trader not lowercased: %q", got.Trader)
	}
	if got.Side != models.SideBuy {
		t.Fatalf("side = %q", got.Side)
	}
	if !got.Timestamp.Equal(time.Unix(1756700000, 0).UTC()) {
		t.Fatalf("timestamp = %v", got.Timestamp)
	}
	if meta["0xabc"].TraderName != "whale" {
		t.Fatalf("meta name = %q", meta["0xabc"].TraderName)
	}
}

func TestNormalizeRejectionOrder(t *testing.T) {
	n := NewNormalizer(1000)

	cases := []struct {
		name   string
		mutate func(*models.RawTrade)
		want   string
	}{
		{"missing hash", func(r *models.RawTrade) { r.TransactionHash = "" }, models.RejectMissingHash},
		{"missing market", func(r *models.RawTrade) { r.ConditionID = "" }, models.RejectMissingMarket},
		{"missing trader", func(r *models.RawTrade) { r.ProxyWallet = "" }, models.RejectMissingTrader},
		{"zero timestamp", func(r *models.RawTrade) { r.Timestamp = 0 }, models.RejectBadTimestamp},
		{"negative timestamp", func(r *models.RawTrade) { r.Timestamp = -5 }, models.RejectBadTimestamp},
		{"nan amount", func(r *models.RawTrade) { r.Size = math.NaN() }, models.RejectBadAmount},
		{"below minimum", func(r *models.RawTrade) { r.Size = 10 }, models.RejectBelowMinimum},
	}
	for _, tc := range cases {
		raw := validRaw()
		tc.mutate(&raw)
		if _, reason := n.Normalize(raw, nil); reason != tc.want {
			t.Fatalf("%s: reason = %q, want %q", tc.name, reason, tc.want)
		}
	}
}

func TestNormalizeFirstFailureWins(t *testing.T) {
	n := NewNormalizer(1000)
	raw := validRaw()
	raw.TransactionHash = ""
	raw.ConditionID = ""
	raw.Timestamp = 0

	if _, reason := n.Normalize(raw, nil); reason != models.RejectMissingHash {
		t.Fatalf("reason = %q, want %q", reason, models.RejectMissingHash)
	}
}

func TestNormalizeSideDefaultsToBuy(t *testing.T) {
	n := NewNormalizer(0)
	for _, side := range []string{"", "SELL", "sell", "weird"} {
		raw := validRaw()
		raw.Side = side
		got, reason := n.Normalize(raw, nil)
		if reason != "" {
			t.Fatalf("unexpected rejection %q", reason)
		}
		want := models.SideBuy
		if side == "SELL" || side == "sell" {
			want = models.SideSell
		}
		if got.Side != want {
			t.Fatalf("side %q normalized to %q, want %q", side, got.Side, want)
		}
	}
}

func TestDedupeTradesKeepsFirst(t *testing.T) {
	trades := []models.Trade{
		{TransactionHash: "a", Amount: 1},
		{TransactionHash: "b", Amount: 2},
		{TransactionHash: "a", Amount: 3},
		{TransactionHash: "c", Amount: 4},
		{TransactionHash: "b", Amount: 5},
	}
	out := DedupeTrades(trades)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[0].Amount != 1 || out[1].Amount != 2 || out[2].Amount != 4 {
		t.Fatalf("dedupe did not keep first occurrences: %+v", out)
	}
}
