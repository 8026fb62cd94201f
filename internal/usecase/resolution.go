package usecase

import (
	"strings"

	"WhaleWatch/internal/domain/models"
)

// Settled-price bounds: an outcome vector is settled only when every
// price sits at one of the two rails.
const (
	settledHigh = 0.999
	settledLow  = 0.001
)

// Decide is the resolution decision engine: a pure function from one
// upstream market descriptor to a verdict. Signals in order of trust:
// the explicit resolved flag, the resolution status enums, an explicit
// winning-outcome field, and the settled-price heuristic (valid only
// for closed markets).
func Decide(d *models.MarketDescriptor) models.Verdict {
	v := models.Verdict{}

	if d.Resolved != nil && *d.Resolved {
		v.ExplicitResolved = true
	}
	if statusResolved(d.UmaResolutionStatus) || statusListResolved(d.UmaResolutionStatuses) {
		v.StatusResolved = true
	}
	if d.WinningOutcome != "" {
		v.ExplicitWinner = true
	}

	heuristicWinner, settled := settledWinner(d)
	v.PriceSettled = settled

	v.IsResolved = v.ExplicitResolved || v.StatusResolved || v.ExplicitWinner || (settled && d.Closed)

	switch {
	case v.ExplicitWinner:
		winner := d.WinningOutcome
		v.WinningOutcome = &winner
	case settled && d.Closed && heuristicWinner != "":
		winner := heuristicWinner
		v.WinningOutcome = &winner
	}

	return v
}

func statusResolved(status string) bool {
	return strings.EqualFold(status, "resolved")
}

func statusListResolved(raw string) bool {
	for _, status := range strings.Split(raw, ",") {
		if statusResolved(strings.Trim(status, ` "[]`)) {
			return true
		}
	}
	return false
}

// settledWinner reports whether the outcome price vector partitions
// into ≈1.0 and ≈0.0 values with nothing in between, and if so which
// outcome sits at the unique maximum. A tied maximum yields no winner:
// an ambiguous winner is never guessed.
func settledWinner(d *models.MarketDescriptor) (winner string, settled bool) {
	prices := d.OutcomePriceValues()
	labels := d.OutcomeLabels()
	if len(prices) == 0 || len(prices) != len(labels) {
		return "", false
	}

	maxIdx, maxCount := 0, 0
	for i, p := range prices {
		if p < settledHigh && p > settledLow {
			return "", false
		}
		if p > prices[maxIdx] {
			maxIdx = i
		}
	}
	for _, p := range prices {
		if p == prices[maxIdx] {
			maxCount++
		}
	}
	if prices[maxIdx] < settledHigh {
		// every outcome at the zero rail: settled shape but no winner
		return "", true
	}
	if maxCount != 1 {
		return "", true
	}
	return labels[maxIdx], true
}
