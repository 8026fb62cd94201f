package usecase

import (
	"context"
	"fmt"
	"testing"

	"WhaleWatch/internal/domain/models"
	xhttp "WhaleWatch/pkg/http"
	applogger "WhaleWatch/pkg/logger"
)

func testIngestConfig() IngestConfig {
	return IngestConfig{
		PageSize:     500,
		MaxPages:     10,
		MinTradeSize: 1000,
		TakerOnly:    true,
	}
}

func newTestIngestor(feed *fakeFeed, store *fakeStore) *Ingestor {
	engine := newTestEngine(store, newFakeCooldowns(), &fakeNotifier{}, testAlertConfig())
	return NewIngestor(feed, store, engine, nil, nopMetrics{}, applogger.Nop(), testIngestConfig())
}

func rawPage(start, count int) []models.RawTrade {
	page := make([]models.RawTrade, 0, count)
	for i := 0; i < count; i++ {
		raw := validRaw()
		raw.TransactionHash = fmt.Sprintf("0x%06d", start+i)
		page = append(page, raw)
	}
	return page
}

func TestRunExhaustsFeed(t *testing.T) {
	feed := &fakeFeed{pages: [][]models.RawTrade{rawPage(0, 3), rawPage(3, 2)}}
	store := newFakeStore()
	ing := newTestIngestor(feed, store)

	report := ing.Run(context.Background())
	if !report.Success {
		t.Fatalf("run failed: %s", report.Error)
	}
	if report.State != "exhausted" {
		t.Fatalf("state = %q, want exhausted", report.State)
	}
	if report.Fetched != 5 || report.Stored != 5 {
		t.Fatalf("fetched = %d stored = %d, want 5/5", report.Fetched, report.Stored)
	}
	if store.recomputed != 1 || store.refreshed != 1 {
		t.Fatalf("aggregates not recomputed after success")
	}
}

func TestRunSequentialOffsets(t *testing.T) {
	feed := &fakeFeed{pages: [][]models.RawTrade{rawPage(0, 3), rawPage(3, 3), rawPage(6, 1)}}
	ing := newTestIngestor(feed, newFakeStore())

	ing.Run(context.Background())
	want := []int{0, 3, 6, 7}
	if len(feed.offsets) != len(want) {
		t.Fatalf("offsets = %v, want %v", feed.offsets, want)
	}
	for i, off := range want {
		if feed.offsets[i] != off {
			t.Fatalf("offsets = %v, want %v", feed.offsets, want)
		}
	}
}

func TestRunSoftStopOnClientError(t *testing.T) {
	feed := &fakeFeed{
		pages:    [][]models.RawTrade{rawPage(0, 3), nil},
		pageErrs: []error{nil, &xhttp.StatusError{Code: 404}},
	}
	store := newFakeStore()
	ing := newTestIngestor(feed, store)

	report := ing.Run(context.Background())
	if !report.Success {
		t.Fatalf("soft stop must still succeed: %s", report.Error)
	}
	if report.State != "soft_stopped" {
		t.Fatalf("state = %q, want soft_stopped", report.State)
	}
	if report.Stored != 3 {
		t.Fatalf("stored = %d, want 3", report.Stored)
	}
	if store.recomputed != 1 {
		t.Fatalf("soft stop must still recompute aggregates")
	}
}

func TestRunHardFailOnServerError(t *testing.T) {
	feed := &fakeFeed{
		pages:    [][]models.RawTrade{rawPage(0, 3), nil},
		pageErrs: []error{nil, &xhttp.StatusError{Code: 500}},
	}
	store := newFakeStore()
	ing := newTestIngestor(feed, store)

	report := ing.Run(context.Background())
	if report.Success {
		t.Fatalf("5xx must hard-fail the run")
	}
	if report.State != "hard_failed" {
		t.Fatalf("state = %q, want hard_failed", report.State)
	}
	if report.Stored != 3 {
		t.Fatalf("earlier pages stay stored, got %d", report.Stored)
	}
	if store.recomputed != 0 {
		t.Fatalf("failed run must not recompute aggregates")
	}
}

func TestRunStoreErrorHardFails(t *testing.T) {
	feed := &fakeFeed{pages: [][]models.RawTrade{rawPage(0, 3)}}
	store := newFakeStore()
	store.upsertErr = fmt.Errorf("connection refused")
	ing := newTestIngestor(feed, store)

	report := ing.Run(context.Background())
	if report.Success || report.State != "hard_failed" {
		t.Fatalf("store error must hard-fail, state = %q", report.State)
	}
}

func TestRunMaxPagesStops(t *testing.T) {
	var pages [][]models.RawTrade
	for i := 0; i < 20; i++ {
		pages = append(pages, rawPage(i*10, 10))
	}
	feed := &fakeFeed{pages: pages}
	ing := newTestIngestor(feed, newFakeStore())
	ing.cfg.MaxPages = 4

	report := ing.Run(context.Background())
	if report.Pages != 4 {
		t.Fatalf("pages = %d, want 4", report.Pages)
	}
	if report.State != "exhausted" {
		t.Fatalf("state = %q", report.State)
	}
}

func TestRunCountsDrops(t *testing.T) {
	page := rawPage(0, 2)
	bad := validRaw()
	bad.TransactionHash = ""
	page = append(page, bad)
	small := validRaw()
	small.TransactionHash = "0xsmall"
	small.Size = 1
	page = append(page, small)

	feed := &fakeFeed{pages: [][]models.RawTrade{page}}
	ing := newTestIngestor(feed, newFakeStore())

	report := ing.Run(context.Background())
	if report.Dropped[models.RejectMissingHash] != 1 {
		t.Fatalf("dropped = %v", report.Dropped)
	}
	if report.Dropped[models.RejectBelowMinimum] != 1 {
		t.Fatalf("dropped = %v", report.Dropped)
	}
	if report.Stored != 2 {
		t.Fatalf("stored = %d, want 2", report.Stored)
	}
}

func TestRunIdempotentRerun(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{pages: [][]models.RawTrade{rawPage(0, 3)}}
	ing := newTestIngestor(feed, store)
	first := ing.Run(context.Background())
	if first.Stored != 3 {
		t.Fatalf("first stored = %d", first.Stored)
	}

	feed2 := &fakeFeed{pages: [][]models.RawTrade{rawPage(0, 3)}}
	ing2 := newTestIngestor(feed2, store)
	second := ing2.Run(context.Background())
	if second.Stored != 0 {
		t.Fatalf("rerun stored = %d, want 0", second.Stored)
	}
	if len(store.trades) != 3 {
		t.Fatalf("trades = %d, want 3", len(store.trades))
	}
}
