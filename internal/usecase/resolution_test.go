package usecase

import (
	"encoding/json"
	"testing"

	"WhaleWatch/internal/domain/models"
)

func descriptor(outcomes []string, prices []string, closed bool) *models.MarketDescriptor {
	ob, _ := json.Marshal(outcomes)
	pb, _ := json.Marshal(prices)
	return &models.MarketDescriptor{
		ConditionID:   "cond-1",
		Outcomes:      json.RawMessage(ob),
		OutcomePrices: json.RawMessage(pb),
		Closed:        closed,
	}
}

func TestDecideSettledClosedMarket(t *testing.T) {
	d := descriptor([]string{"Yes", "No"}, []string{"0.999", "0.001"}, true)
	v := Decide(d)
	if !v.IsResolved {
		t.Fatalf("expected resolved")
	}
	if v.WinningOutcome == nil || *v.WinningOutcome != "Yes" {
		t.Fatalf("winner = %v, want Yes", v.WinningOutcome)
	}
	if !v.PriceSettled {
		t.Fatalf("expected price settled")
	}
}

func TestDecideSettledButOpenMarket(t *testing.T) {
	d := descriptor([]string{"Yes", "No"}, []string{"1", "0"}, false)
	v := Decide(d)
	if v.IsResolved {
		t.Fatalf("open market must not resolve on prices alone")
	}
	if v.WinningOutcome != nil {
		t.Fatalf("winner = %v, want nil", *v.WinningOutcome)
	}
}

func TestDecideUnsettledPrices(t *testing.T) {
	d := descriptor([]string{"Yes", "No"}, []string{"0.96", "0.04"}, true)
	v := Decide(d)
	if v.IsResolved || v.PriceSettled {
		t.Fatalf("0.96 is not a settled price")
	}
}

func TestDecideTiedMaximumHasNoWinner(t *testing.T) {
	d := descriptor([]string{"A", "B"}, []string{"0.999", "0.999"}, true)
	v := Decide(d)
	if !v.IsResolved {
		t.Fatalf("expected resolved")
	}
	if v.WinningOutcome != nil {
		t.Fatalf("tied maximum must not name a winner, got %q", *v.WinningOutcome)
	}
}

func TestDecideAllZeroRail(t *testing.T) {
	d := descriptor([]string{"A", "B"}, []string{"0", "0.001"}, true)
	v := Decide(d)
	if !v.IsResolved {
		t.Fatalf("expected resolved")
	}
	if v.WinningOutcome != nil {
		t.Fatalf("no outcome at the top rail, winner must be nil")
	}
}

func TestDecideExplicitWinnerBeatsHeuristic(t *testing.T) {
	d := descriptor([]string{"Yes", "No"}, []string{"0.999", "0.001"}, true)
	d.WinningOutcome = "No"
	v := Decide(d)
	if v.WinningOutcome == nil || *v.WinningOutcome != "No" {
		t.Fatalf("explicit winner must win, got %v", v.WinningOutcome)
	}
}

func TestDecideExplicitResolvedFlag(t *testing.T) {
	resolved := true
	d := descriptor([]string{"Yes", "No"}, []string{"0.5", "0.5"}, false)
	d.Resolved = &resolved
	v := Decide(d)
	if !v.IsResolved {
		t.Fatalf("explicit flag must resolve")
	}
	if v.WinningOutcome != nil {
		t.Fatalf("no winner available, got %q", *v.WinningOutcome)
	}
}

func TestDecideStatusList(t *testing.T) {
	d := descriptor([]string{"Yes", "No"}, []string{"0.5", "0.5"}, false)
	d.UmaResolutionStatuses = `["proposed", "RESOLVED"]`
	v := Decide(d)
	if !v.IsResolved || !v.StatusResolved {
		t.Fatalf("status list with resolved entry must resolve")
	}
}

func TestDecideDoubleEncodedArrays(t *testing.T) {
	d := &models.MarketDescriptor{
		ConditionID:   "cond-1",
		Closed:        true,
		Outcomes:      json.RawMessage(`"[\"Yes\", \"No\"]"`),
		OutcomePrices: json.RawMessage(`"[\"0.001\", \"0.999\"]"`),
	}
	v := Decide(d)
	if v.WinningOutcome == nil || *v.WinningOutcome != "No" {
		t.Fatalf("winner = %v, want No", v.WinningOutcome)
	}
}

func TestDecideLengthMismatch(t *testing.T) {
	d := descriptor([]string{"Yes"}, []string{"0.999", "0.001"}, true)
	v := Decide(d)
	if v.PriceSettled || v.IsResolved {
		t.Fatalf("mismatched vectors must not settle")
	}
}
