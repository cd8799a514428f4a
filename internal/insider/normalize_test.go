package insider

import (
	"testing"
	"time"
)

func TestNormalizeMalformedRecord(t *testing.T) {
	raws := []RawFiling{
		{"company": nil, "shares": "bad"},
	}

	records, defaulted := NormalizeAt(raws, time.Now())

	if len(records) != 1 {
		t.Fatalf("Expected 1 record out for 1 in, got %d", len(records))
	}
	if defaulted != 1 {
		t.Errorf("Expected 1 defaulted record, got %d", defaulted)
	}

	rec := records[0]
	if rec.Company != UnknownCompany {
		t.Errorf("Expected company %q, got %q", UnknownCompany, rec.Company)
	}
	if rec.Insider != UnknownInsider {
		t.Errorf("Expected insider %q, got %q", UnknownInsider, rec.Insider)
	}
	if rec.Shares != 0 {
		t.Errorf("Expected shares 0, got %d", rec.Shares)
	}
	if rec.PricePerShare != 0 {
		t.Errorf("Expected price 0, got %f", rec.PricePerShare)
	}
	if rec.TransactionType != UnknownTransaction {
		t.Errorf("Expected transaction type %s, got %s", UnknownTransaction, rec.TransactionType)
	}
}

func TestNormalizeNeverDropsRecords(t *testing.T) {
	raws := []RawFiling{
		{"company": "AAPL", "insider": "Jane Doe", "transaction": "Purchase", "shares": float64(100), "price": 10.0, "date": "2026-08-20"},
		nil,
		{},
		{"company": 42, "shares": true, "price": []string{"x"}, "date": 3.14},
		{"company": "  msft ", "transaction": "SELL", "shares": "1,500", "price": "$410.25"},
	}

	records, _ := NormalizeAt(raws, time.Now())

	if len(records) != len(raws) {
		t.Fatalf("Expected %d records out, got %d", len(raws), len(records))
	}
	for i, rec := range records {
		if rec.Company == "" || rec.Insider == "" {
			t.Errorf("Record %d has an empty required field: %+v", i, rec)
		}
		if rec.FilingDate.IsZero() {
			t.Errorf("Record %d has a zero filing date", i)
		}
	}
}

func TestNormalizeCaseAndTrim(t *testing.T) {
	raws := []RawFiling{
		{"company": "  aapl  ", "insider": " Jane Doe ", "shares": float64(10), "price": 5.0},
	}

	records, _ := NormalizeAt(raws, time.Now())

	if records[0].Company != "AAPL" {
		t.Errorf("Expected company AAPL, got %q", records[0].Company)
	}
	if records[0].Insider != "Jane Doe" {
		t.Errorf("Expected insider to be trimmed, got %q", records[0].Insider)
	}
}

func TestNormalizeNumericCoercion(t *testing.T) {
	now := time.Now()

	records, _ := NormalizeAt([]RawFiling{
		{"company": "A", "shares": "1,200", "price": "$45.50"},
	}, now)
	if records[0].Shares != 1200 {
		t.Errorf("Expected grouped share count 1200, got %d", records[0].Shares)
	}
	if records[0].PricePerShare != 45.50 {
		t.Errorf("Expected price 45.50, got %f", records[0].PricePerShare)
	}

	// Negative quantities are invalid, not meaningful
	records, defaulted := NormalizeAt([]RawFiling{
		{"company": "B", "shares": float64(-5), "price": -1.0},
	}, now)
	if records[0].Shares != 0 || records[0].PricePerShare != 0 {
		t.Errorf("Expected negatives coerced to zero, got shares=%d price=%f",
			records[0].Shares, records[0].PricePerShare)
	}
	if defaulted != 1 {
		t.Errorf("Expected the negative record counted as defaulted, got %d", defaulted)
	}

	// Empty and dash strings mean zero and are not malformed numbers
	records, _ = NormalizeAt([]RawFiling{
		{"company": "C", "shares": "-", "price": ""},
	}, now)
	if records[0].Shares != 0 || records[0].PricePerShare != 0 {
		t.Errorf("Expected dash/empty to parse as zero, got shares=%d price=%f",
			records[0].Shares, records[0].PricePerShare)
	}
}

func TestNormalizeDateFallback(t *testing.T) {
	pinned := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	records, _ := NormalizeAt([]RawFiling{
		{"company": "A", "date": "not-a-date"},
		{"company": "B", "date": "2026-08-20"},
		{"company": "C"},
	}, pinned)

	if !records[0].FilingDate.Equal(pinned) {
		t.Errorf("Expected unparseable date to fall back to processing date, got %v", records[0].FilingDate)
	}
	want := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	if !records[1].FilingDate.Equal(want) {
		t.Errorf("Expected parsed date %v, got %v", want, records[1].FilingDate)
	}
	if !records[2].FilingDate.Equal(pinned) {
		t.Errorf("Expected missing date to fall back to processing date, got %v", records[2].FilingDate)
	}
}

func TestParseTransactionType(t *testing.T) {
	if got := ParseTransactionType("Buy"); got != Purchase {
		t.Errorf("Expected Buy -> %s, got %s", Purchase, got)
	}
	if got := ParseTransactionType("  PURCHASE "); got != Purchase {
		t.Errorf("Expected PURCHASE -> %s, got %s", Purchase, got)
	}
	if got := ParseTransactionType("sell"); got != Sale {
		t.Errorf("Expected sell -> %s, got %s", Sale, got)
	}
	if got := ParseTransactionType("Sale"); got != Sale {
		t.Errorf("Expected Sale -> %s, got %s", Sale, got)
	}
	if got := ParseTransactionType("gift"); got != UnknownTransaction {
		t.Errorf("Expected gift -> %s, got %s", UnknownTransaction, got)
	}
	if got := ParseTransactionType(""); got != UnknownTransaction {
		t.Errorf("Expected empty -> %s, got %s", UnknownTransaction, got)
	}
}

func TestNormalizeKeepsSource(t *testing.T) {
	records, _ := NormalizeAt([]RawFiling{
		{"company": "AAPL", "shares": float64(1), "price": 1.0, "source": "edgar"},
	}, time.Now())

	if records[0].Source != "edgar" {
		t.Errorf("Expected source edgar, got %q", records[0].Source)
	}
}
