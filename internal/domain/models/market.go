package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// Market is the persisted market row, keyed by condition id. Once
// resolved with a winning outcome it must never be downgraded.
type Market struct {
	ConditionID    string
	Slug           string
	Question       string
	Resolved       bool
	WinningOutcome *string
	LastCheckedAt  *time.Time
	ResolvedAt     *time.Time
}

// MarketRef is the minimal handle needed to re-check a market.
type MarketRef struct {
	ConditionID string
	Slug        string
}

// MarketDescriptor is the raw upstream market record. The upstream is
// loosely typed, so every field is optional and defaulted; all
// resolution reasoning over it lives in the decision engine.
type MarketDescriptor struct {
	ID                    string          `json:"id"`
	ConditionID           string          `json:"conditionId"`
	Slug                  string          `json:"slug"`
	Question              string          `json:"question"`
	Resolved              *bool           `json:"resolved"`
	Closed                bool            `json:"closed"`
	Active                bool            `json:"active"`
	UmaResolutionStatus   string          `json:"umaResolutionStatus"`
	UmaResolutionStatuses string          `json:"umaResolutionStatuses"`
	Outcomes              json.RawMessage `json:"outcomes"`
	OutcomePrices         json.RawMessage `json:"outcomePrices"`
	WinningOutcome        string          `json:"winningOutcome"`
	ResolvedBy            string          `json:"resolvedBy"`
	EndDate               string          `json:"endDate"`
	ClosedTime            string          `json:"closedTime"`
}

// EventDescriptor groups the markets sharing one upstream event.
type EventDescriptor struct {
	Slug    string             `json:"slug"`
	Title   string             `json:"title"`
	Markets []MarketDescriptor `json:"markets"`
}

// OutcomeLabels parses the outcome labels array. The upstream encodes
// it either as a JSON array or as a JSON string containing one.
func (d *MarketDescriptor) OutcomeLabels() []string {
	return decodeStringArray(d.Outcomes)
}

// OutcomePriceValues parses the outcome price vector.
func (d *MarketDescriptor) OutcomePriceValues() []float64 {
	raw := decodeStringArray(d.OutcomePrices)
	if raw == nil {
		return nil
	}
	prices := make([]float64, 0, len(raw))
	for _, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		prices = append(prices, v)
	}
	return prices
}

func decodeStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	// double-encoded: a JSON string holding a JSON array
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(inner), &arr); err != nil {
		return nil
	}
	return arr
}

// Verdict is the ephemeral output of the resolution decision engine,
// computed fresh per reconciliation pass and never cached.
type Verdict struct {
	IsResolved     bool
	WinningOutcome *string

	// supporting signals, kept for logging
	ExplicitResolved bool
	StatusResolved   bool
	ExplicitWinner   bool
	PriceSettled     bool
}
