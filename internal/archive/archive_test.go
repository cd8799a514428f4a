package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"insider-radar/internal/insider"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()

	a, err := Open(filepath.Join(t.TempDir(), "insider.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })

	return a
}

func testRecords() []insider.FilingRecord {
	return []insider.FilingRecord{
		{
			Company:         "AAPL",
			Insider:         "Timothy Donovan",
			TransactionType: insider.Purchase,
			Shares:          12000,
			PricePerShare:   187.5,
			FilingDate:      time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC),
			Source:          "mock",
		},
		{
			Company:         "MSFT",
			Insider:         "David Okafor",
			TransactionType: insider.Sale,
			Shares:          4000,
			PricePerShare:   415,
			FilingDate:      time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC),
			Source:          "mock",
		},
		{
			Company:         "UNKNOWN",
			Insider:         "Unknown",
			TransactionType: insider.UnknownTransaction,
			Shares:          0,
			PricePerShare:   0,
			FilingDate:      time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC),
			Source:          "mock",
		},
	}
}

func TestArchiveSaveAndQuery(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	inserted, err := a.SaveFilings(ctx, testRecords())
	if err != nil {
		t.Fatalf("SaveFilings failed: %v", err)
	}
	if inserted != 3 {
		t.Errorf("Expected 3 inserted rows, got %d", inserted)
	}

	from := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)

	got, err := a.FilingsBetween(ctx, from, to)
	if err != nil {
		t.Fatalf("FilingsBetween failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 filings in window, got %d", len(got))
	}

	// Oldest first.
	if got[0].Company != "MSFT" || got[1].Company != "AAPL" {
		t.Errorf("Expected [MSFT AAPL], got [%s %s]", got[0].Company, got[1].Company)
	}

	aapl := got[1]
	if aapl.Insider != "Timothy Donovan" {
		t.Errorf("Expected insider Timothy Donovan, got %s", aapl.Insider)
	}
	if aapl.TransactionType != insider.Purchase {
		t.Errorf("Expected Purchase, got %v", aapl.TransactionType)
	}
	if aapl.Shares != 12000 {
		t.Errorf("Expected 12000 shares, got %d", aapl.Shares)
	}
	if aapl.PricePerShare != 187.5 {
		t.Errorf("Expected price 187.5, got %v", aapl.PricePerShare)
	}
	if !aapl.FilingDate.Equal(time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected filing date preserved, got %v", aapl.FilingDate)
	}
	if aapl.Source != "mock" {
		t.Errorf("Expected source mock, got %s", aapl.Source)
	}
}

func TestArchiveDedupe(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	records := testRecords()
	if _, err := a.SaveFilings(ctx, records); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	inserted, err := a.SaveFilings(ctx, records)
	if err != nil {
		t.Fatalf("Second save failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected re-archiving to insert 0 rows, got %d", inserted)
	}

	count, err := a.CountFilings(ctx)
	if err != nil {
		t.Fatalf("CountFilings failed: %v", err)
	}
	if count != len(records) {
		t.Errorf("Expected %d archived filings, got %d", len(records), count)
	}
}

func TestArchiveWindowBoundaries(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	from := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)

	records := []insider.FilingRecord{
		{Company: "A", Insider: "X", TransactionType: insider.Purchase, Shares: 1, PricePerShare: 1, FilingDate: from, Source: "t"},
		{Company: "B", Insider: "Y", TransactionType: insider.Purchase, Shares: 1, PricePerShare: 1, FilingDate: to, Source: "t"},
	}
	if _, err := a.SaveFilings(ctx, records); err != nil {
		t.Fatalf("SaveFilings failed: %v", err)
	}

	got, err := a.FilingsBetween(ctx, from, to)
	if err != nil {
		t.Fatalf("FilingsBetween failed: %v", err)
	}

	if len(got) != 1 || got[0].Company != "A" {
		t.Errorf("Expected half-open window [from, to) to keep only A, got %v", got)
	}
}

func TestArchiveEmptySave(t *testing.T) {
	a := newTestArchive(t)

	inserted, err := a.SaveFilings(context.Background(), nil)
	if err != nil {
		t.Fatalf("SaveFilings failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected 0 inserted for empty input, got %d", inserted)
	}
}

func TestArchiveRuns(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	first := &Run{
		StartedAt:       time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC),
		FinishedAt:      time.Date(2026, 8, 23, 9, 0, 5, 0, time.UTC),
		Source:          "mock",
		CurrentRecords:  7,
		BaselineRecords: 10,
		AnomalyCount:    2,
		TopKey:          "AAPL",
		ReportPath:      "reports/insider_radar_20260823_090005.txt",
	}
	if err := a.SaveRun(ctx, first); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if first.ID == 0 {
		t.Error("Expected SaveRun to backfill the run ID")
	}

	second := &Run{
		StartedAt:  time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 8, 23, 10, 0, 4, 0, time.UTC),
		Source:     "mock",
	}
	if err := a.SaveRun(ctx, second); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	runs, err := a.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}

	// Newest first.
	if runs[0].ID != second.ID {
		t.Errorf("Expected newest run first, got ID %d", runs[0].ID)
	}
	if runs[1].AnomalyCount != 2 || runs[1].TopKey != "AAPL" {
		t.Errorf("Expected run fields preserved, got %+v", runs[1])
	}

	limited, err := a.RecentRuns(ctx, 1)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("Expected limit 1 to return 1 run, got %d", len(limited))
	}
}
