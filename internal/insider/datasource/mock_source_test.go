package datasource

import (
	"context"
	"reflect"
	"testing"
	"time"

	"insider-radar/internal/insider"
)

var mockWindowEnd = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func TestMockSourceCurrentWindow(t *testing.T) {
	source := NewMockSourceAt(mockWindowEnd)
	from := mockWindowEnd.Add(-24 * time.Hour)

	filings, err := source.FetchFilings(context.Background(), from, mockWindowEnd)
	if err != nil {
		t.Fatalf("FetchFilings failed: %v", err)
	}

	if len(filings) != 7 {
		t.Fatalf("Expected 7 filings in the last 24h, got %d", len(filings))
	}

	for i, f := range filings {
		if f["source"] != "mock" {
			t.Errorf("Filing %d: expected source mock, got %v", i, f["source"])
		}
		if _, ok := f["date"].(string); !ok {
			t.Errorf("Filing %d: expected string date, got %v", i, f["date"])
		}
	}
}

func TestMockSourceBaselineWindow(t *testing.T) {
	source := NewMockSourceAt(mockWindowEnd)
	from := mockWindowEnd.Add(-8 * 24 * time.Hour)
	to := mockWindowEnd.Add(-24 * time.Hour)

	filings, err := source.FetchFilings(context.Background(), from, to)
	if err != nil {
		t.Fatalf("FetchFilings failed: %v", err)
	}

	if len(filings) != 10 {
		t.Fatalf("Expected 10 filings in the baseline week, got %d", len(filings))
	}

	// The AAPL cluster is confined to the current day.
	for i, f := range filings {
		if f["company"] == "AAPL" || f["company"] == "aapl" {
			t.Errorf("Filing %d: AAPL fixture leaked into baseline window", i)
		}
	}
}

func TestMockSourceDeterministic(t *testing.T) {
	source := NewMockSourceAt(mockWindowEnd)
	from := mockWindowEnd.Add(-24 * time.Hour)

	first, err := source.FetchFilings(context.Background(), from, mockWindowEnd)
	if err != nil {
		t.Fatalf("First fetch failed: %v", err)
	}
	second, err := source.FetchFilings(context.Background(), from, mockWindowEnd)
	if err != nil {
		t.Fatalf("Second fetch failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical results for identical windows")
	}
}

func TestMockSourceCopiesFixtures(t *testing.T) {
	source := NewMockSourceAt(mockWindowEnd)
	from := mockWindowEnd.Add(-24 * time.Hour)

	first, _ := source.FetchFilings(context.Background(), from, mockWindowEnd)
	first[0]["company"] = "HACKED"

	second, _ := source.FetchFilings(context.Background(), from, mockWindowEnd)
	if second[0]["company"] == "HACKED" {
		t.Error("Mutating a fetched filing must not change the fixtures")
	}
}

func TestMockSourceNormalizes(t *testing.T) {
	source := NewMockSourceAt(mockWindowEnd)
	from := mockWindowEnd.Add(-24 * time.Hour)

	filings, err := source.FetchFilings(context.Background(), from, mockWindowEnd)
	if err != nil {
		t.Fatalf("FetchFilings failed: %v", err)
	}

	records, defaulted := insider.NormalizeAt(filings, mockWindowEnd)
	if len(records) != len(filings) {
		t.Fatalf("Expected %d records, got %d", len(filings), len(records))
	}
	if defaulted == 0 {
		t.Error("Expected the malformed fixture row to count as defaulted")
	}

	set := insider.Aggregate(records, insider.GroupByCompany)
	aapl := set.Get("AAPL")
	if aapl == nil {
		t.Fatal("Expected an AAPL aggregate")
	}
	if aapl.TotalShares != 12000+8500+6400 {
		t.Errorf("Expected AAPL cluster of 26900 shares, got %d", aapl.TotalShares)
	}

	if set.Get("UNKNOWN") == nil {
		t.Error("Expected the malformed row to aggregate under UNKNOWN")
	}
}
