package usecase

import (
	"context"
	"fmt"
	"time"

	"WhaleWatch/internal/domain/models"
)

// fakeStore is an in-memory store with per-method error injection.
type fakeStore struct {
	trades      map[string]models.Trade
	alerts      map[string]models.Alert
	stats       map[string]models.TraderStats
	isolated    map[string]bool
	recentCount int

	markets       map[string]models.MarketRef
	resolutions   map[string]string
	touched       []string
	due           []models.MarketRef
	recentRefs    []models.MarketRef
	recentSlugs   []string
	recomputed    int
	refreshed     int
	upsertErr     error
	insertErr     error
	resolutionErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		trades:      map[string]models.Trade{},
		alerts:      map[string]models.Alert{},
		stats:       map[string]models.TraderStats{},
		isolated:    map[string]bool{},
		markets:     map[string]models.MarketRef{},
		resolutions: map[string]string{},
	}
}

func (s *fakeStore) UpsertTrades(_ context.Context, trades []models.Trade) (int, error) {
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	inserted := 0
	for _, t := range trades {
		if _, ok := s.trades[t.TransactionHash]; ok {
			continue
		}
		s.trades[t.TransactionHash] = t
		inserted++
	}
	return inserted, nil
}

func (s *fakeStore) EnsureMarkets(_ context.Context, refs []models.MarketRef, _ map[string]string) error {
	for _, ref := range refs {
		if _, ok := s.markets[ref.ConditionID]; !ok {
			s.markets[ref.ConditionID] = ref
		}
	}
	return nil
}

func (s *fakeStore) SaveResolution(_ context.Context, conditionID, winningOutcome, _, _ string, _ time.Time) error {
	if s.resolutionErr != nil {
		return s.resolutionErr
	}
	s.resolutions[conditionID] = winningOutcome
	return nil
}

func (s *fakeStore) TouchMarketChecked(_ context.Context, conditionID, _, _ string) error {
	s.touched = append(s.touched, conditionID)
	return nil
}

func (s *fakeStore) RecentTradeMarkets(_ context.Context, _ time.Time, _ int) ([]models.MarketRef, error) {
	return s.recentRefs, nil
}

func (s *fakeStore) DueMarkets(_ context.Context, _ time.Time, _ int) ([]models.MarketRef, error) {
	return s.due, nil
}

func (s *fakeStore) AllMarkets(_ context.Context, _ int) ([]models.MarketRef, error) {
	refs := make([]models.MarketRef, 0, len(s.markets))
	for _, ref := range s.markets {
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *fakeStore) RecentMarketSlugs(_ context.Context, _ time.Time, _ int) ([]string, error) {
	return s.recentSlugs, nil
}

func (s *fakeStore) InsertAlerts(_ context.Context, alerts []models.Alert) ([]models.Alert, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	var inserted []models.Alert
	for _, a := range alerts {
		if _, ok := s.alerts[a.TradeHash]; ok {
			continue
		}
		s.alerts[a.TradeHash] = a
		inserted = append(inserted, a)
	}
	return inserted, nil
}

func (s *fakeStore) MarkAlertSent(_ context.Context, tradeHash string) error {
	a, ok := s.alerts[tradeHash]
	if !ok {
		return fmt.Errorf("no alert for trade %s", tradeHash)
	}
	a.Sent = true
	s.alerts[tradeHash] = a
	return nil
}

func (s *fakeStore) CountRecentAlerts(_ context.Context, _ time.Duration) (int, error) {
	return s.recentCount + len(s.alerts), nil
}

func (s *fakeStore) TraderStats(_ context.Context, addresses []string) (map[string]models.TraderStats, error) {
	out := map[string]models.TraderStats{}
	for _, addr := range addresses {
		if st, ok := s.stats[addr]; ok {
			out[addr] = st
		}
	}
	return out, nil
}

func (s *fakeStore) FilterIsolated(_ context.Context, candidates []models.IsolatedCandidate) (map[string]bool, error) {
	out := map[string]bool{}
	for _, c := range candidates {
		if s.isolated[c.TradeHash] {
			out[c.TradeHash] = true
		}
	}
	return out, nil
}

func (s *fakeStore) RecomputeTraderStats(context.Context) error {
	s.recomputed++
	return nil
}

func (s *fakeStore) RefreshLeaderboard(context.Context) error {
	s.refreshed++
	return nil
}

func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

// fakeFeed serves scripted pages and descriptors.
type fakeFeed struct {
	pages     [][]models.RawTrade
	pageErrs  []error
	calls     int
	offsets   []int
	markets   map[string]*models.MarketDescriptor
	byCondID  map[string]models.MarketDescriptor
	events    map[string]*models.EventDescriptor
	lookupErr error
}

func (f *fakeFeed) Trades(_ context.Context, _, offset int, _ float64, _ bool) ([]models.RawTrade, error) {
	f.offsets = append(f.offsets, offset)
	idx := f.calls
	f.calls++
	if idx < len(f.pageErrs) && f.pageErrs[idx] != nil {
		return nil, f.pageErrs[idx]
	}
	if idx < len(f.pages) {
		return f.pages[idx], nil
	}
	return nil, nil
}

func (f *fakeFeed) MarketBySlug(_ context.Context, slug string) (*models.MarketDescriptor, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.markets[slug], nil
}

func (f *fakeFeed) MarketsByConditionIDs(_ context.Context, ids []string) ([]models.MarketDescriptor, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	var out []models.MarketDescriptor
	for _, id := range ids {
		if d, ok := f.byCondID[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeFeed) EventBySlug(_ context.Context, slug string) (*models.EventDescriptor, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.events[slug], nil
}

// fakeNotifier records everything it is asked to send.
type fakeNotifier struct {
	sent []models.Alert
	err  error
}

func (n *fakeNotifier) NotifyAlert(_ context.Context, alert models.Alert, _ models.Trade, _ models.TradeMeta) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, alert)
	return nil
}

// fakeCooldowns is a plain set, no expiry.
type fakeCooldowns struct {
	active map[string]bool
	marked []string
}

func newFakeCooldowns() *fakeCooldowns {
	return &fakeCooldowns{active: map[string]bool{}}
}

func (c *fakeCooldowns) OnCooldown(_ context.Context, trader string) bool {
	return c.active[trader]
}

func (c *fakeCooldowns) Mark(_ context.Context, trader string, _ time.Duration) {
	c.active[trader] = true
	c.marked = append(c.marked, trader)
}

// nopMetrics satisfies the metrics sink without recording.
type nopMetrics struct{}

func (nopMetrics) RecordTradesFetched(int)       {}
func (nopMetrics) RecordTradesStored(int)        {}
func (nopMetrics) RecordRowDropped(string)       {}
func (nopMetrics) RecordAlert(string)            {}
func (nopMetrics) RecordBudgetExhausted()        {}
func (nopMetrics) RecordMarketResolved()         {}
func (nopMetrics) RecordMarketTouched()          {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}
