package telegram

import "regexp"

const eventBaseURL = "https://polymarket.com/event/"

// sportsGameSlug matches league-team-team-date market slugs, e.g.
// "nba-lal-bos-2026-01-15". For game markets the market slug doubles as
// the event slug.
var sportsGameSlug = regexp.MustCompile(`^[a-z0-9]+-[a-z0-9]{2,5}-[a-z0-9]{2,5}-\d{4}-\d{2}-\d{2}$`)

// trailingOutcomeSuffix strips a trailing outcome qualifier some market
// slugs carry on top of their event slug (e.g. "-yes", "-no").
var trailingOutcomeSuffix = regexp.MustCompile(`-(yes|no)$`)

// DeepLink builds a human link for an alert. The event slug recorded at
// ingest wins; otherwise the link is reconstructed from the market slug.
func DeepLink(eventSlug, marketSlug string) string {
	if eventSlug != "" {
		return eventBaseURL + eventSlug
	}
	if marketSlug == "" {
		return ""
	}
	if sportsGameSlug.MatchString(marketSlug) {
		return eventBaseURL + marketSlug
	}
	return eventBaseURL + trailingOutcomeSuffix.ReplaceAllString(marketSlug, "")
}
