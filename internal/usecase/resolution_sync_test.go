package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"WhaleWatch/internal/domain/models"
	applogger "WhaleWatch/pkg/logger"
)

func testResolutionConfig() ResolutionConfig {
	return ResolutionConfig{
		RecheckWindow:  6 * time.Hour,
		Lookback:       72 * time.Hour,
		BatchSize:      2,
		BatchPause:     0,
		CandidateLimit: 200,
		LeaguePrefixes: []string{"nba", "nfl"},
	}
}

func newTestSyncer(feed *fakeFeed, store *fakeStore) *ResolutionSyncer {
	return NewResolutionSyncer(feed, store, nopMetrics{}, applogger.Nop(), testResolutionConfig())
}

func settledDescriptor(conditionID, slug, winner string) *models.MarketDescriptor {
	d := descriptor([]string{"Yes", "No"}, []string{"0.999", "0.001"}, true)
	d.ConditionID = conditionID
	d.Slug = slug
	if winner != "Yes" {
		d.OutcomePrices = []byte(`["0.001", "0.999"]`)
	}
	return d
}

func openDescriptor(conditionID, slug string) *models.MarketDescriptor {
	d := descriptor([]string{"Yes", "No"}, []string{"0.6", "0.4"}, false)
	d.ConditionID = conditionID
	d.Slug = slug
	return d
}

func TestParseSyncMode(t *testing.T) {
	for _, s := range []string{"recent", "due", "all", "events_recent", "market", "event"} {
		if _, err := ParseSyncMode(s); err != nil {
			t.Fatalf("mode %q rejected: %v", s, err)
		}
	}
	if _, err := ParseSyncMode("bogus"); err == nil {
		t.Fatalf("bogus mode accepted")
	}
}

func TestSyncDueResolvesSettled(t *testing.T) {
	store := newFakeStore()
	store.due = []models.MarketRef{
		{ConditionID: "c1", Slug: "game-1"},
		{ConditionID: "c2", Slug: "game-2"},
	}
	feed := &fakeFeed{markets: map[string]*models.MarketDescriptor{
		"game-1": settledDescriptor("c1", "game-1", "Yes"),
		"game-2": openDescriptor("c2", "game-2"),
	}}
	syncer := newTestSyncer(feed, store)

	report, err := syncer.Run(context.Background(), ModeDue, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Checked != 2 || report.Resolved != 1 || report.Touched != 1 {
		t.Fatalf("report = %+v", report)
	}
	if store.resolutions["c1"] != "Yes" {
		t.Fatalf("c1 resolution = %q", store.resolutions["c1"])
	}
	if len(store.touched) != 1 || store.touched[0] != "c2" {
		t.Fatalf("touched = %v", store.touched)
	}
}

func TestSyncMissingDescriptorSkipped(t *testing.T) {
	store := newFakeStore()
	store.due = []models.MarketRef{{ConditionID: "gone", Slug: "gone-slug"}}
	feed := &fakeFeed{markets: map[string]*models.MarketDescriptor{}}
	syncer := newTestSyncer(feed, store)

	report, err := syncer.Run(context.Background(), ModeDue, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Skipped != 1 || report.Resolved != 0 || report.Touched != 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestSyncConditionIDFallback(t *testing.T) {
	store := newFakeStore()
	store.due = []models.MarketRef{{ConditionID: "c1"}}
	feed := &fakeFeed{
		markets:  map[string]*models.MarketDescriptor{},
		byCondID: map[string]models.MarketDescriptor{"c1": *settledDescriptor("c1", "game-1", "Yes")},
	}
	syncer := newTestSyncer(feed, store)

	report, err := syncer.Run(context.Background(), ModeDue, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Resolved != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestSyncResolvedWithoutWinnerOnlyTouches(t *testing.T) {
	store := newFakeStore()
	store.due = []models.MarketRef{{ConditionID: "c1", Slug: "game-1"}}
	resolved := true
	d := descriptor([]string{"Yes", "No"}, []string{"0.5", "0.5"}, false)
	d.ConditionID = "c1"
	d.Slug = "game-1"
	d.Resolved = &resolved
	feed := &fakeFeed{markets: map[string]*models.MarketDescriptor{"game-1": d}}
	syncer := newTestSyncer(feed, store)

	report, _ := syncer.Run(context.Background(), ModeDue, "")
	if report.Resolved != 0 || report.Touched != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(store.resolutions) != 0 {
		t.Fatalf("resolution persisted without a winner: %v", store.resolutions)
	}
}

func TestSyncLookupErrorCountsFailed(t *testing.T) {
	store := newFakeStore()
	store.due = []models.MarketRef{{ConditionID: "c1", Slug: "game-1"}}
	feed := &fakeFeed{lookupErr: fmt.Errorf("upstream down")}
	syncer := newTestSyncer(feed, store)

	report, err := syncer.Run(context.Background(), ModeDue, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestSyncRecentEnsuresPlaceholders(t *testing.T) {
	store := newFakeStore()
	store.recentRefs = []models.MarketRef{{ConditionID: "c1", Slug: "game-1"}}
	feed := &fakeFeed{markets: map[string]*models.MarketDescriptor{
		"game-1": openDescriptor("c1", "game-1"),
	}}
	syncer := newTestSyncer(feed, store)

	if _, err := syncer.Run(context.Background(), ModeRecent, ""); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := store.markets["c1"]; !ok {
		t.Fatalf("placeholder market row not ensured")
	}
}

func TestSyncEventMode(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{events: map[string]*models.EventDescriptor{
		"nba-lal-bos-2026-01-01": {
			Slug: "nba-lal-bos-2026-01-01",
			Markets: []models.MarketDescriptor{
				*settledDescriptor("c1", "game-1", "Yes"),
				*openDescriptor("c2", "game-2"),
			},
		},
	}}
	syncer := newTestSyncer(feed, store)

	report, err := syncer.Run(context.Background(), ModeEvent, "nba-lal-bos-2026-01-01")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Checked != 2 || report.Resolved != 1 || report.Touched != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestSyncEventsRecentFiltersLeagues(t *testing.T) {
	store := newFakeStore()
	store.recentSlugs = []string{
		"nba-lal-bos-2026-01-01",
		"nba-lal-bos-2026-01-01",
		"politics-election-2026",
		"nfl-kc-buf-2026-01-02",
	}
	feed := &fakeFeed{events: map[string]*models.EventDescriptor{
		"nba-lal-bos-2026-01-01": {Markets: []models.MarketDescriptor{*settledDescriptor("c1", "game-1", "Yes")}},
		"nfl-kc-buf-2026-01-02":  {Markets: []models.MarketDescriptor{*openDescriptor("c2", "game-2")}},
	}}
	syncer := newTestSyncer(feed, store)

	report, err := syncer.Run(context.Background(), ModeEventsRecent, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// the politics slug is out of scope; the nba slug counts once
	if report.Checked != 2 {
		t.Fatalf("checked = %d, want 2", report.Checked)
	}
	if report.Resolved != 1 || report.Touched != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestSyncMarketMode(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{markets: map[string]*models.MarketDescriptor{
		"game-1": settledDescriptor("c1", "game-1", "Yes"),
	}}
	syncer := newTestSyncer(feed, store)

	report, err := syncer.Run(context.Background(), ModeMarket, "game-1")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Resolved != 1 {
		t.Fatalf("report = %+v", report)
	}
}
