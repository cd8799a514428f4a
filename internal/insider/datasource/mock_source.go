package datasource

import (
	"context"
	"time"

	"insider-radar/internal/insider"
)

// MockSource serves deterministic filing fixtures for development and tests.
// The fixtures are anchored to a single instant fixed at construction, so the
// current and baseline fetches of one run see a consistent timeline: a fresh
// cluster of buying, a volume spike, and a vanished seller regardless of the
// wall clock.
type MockSource struct {
	anchor time.Time
}

// NewMockSource creates a mock filing source anchored to the current time
func NewMockSource() *MockSource {
	return NewMockSourceAt(time.Now().UTC())
}

// NewMockSourceAt creates a mock filing source anchored to a fixed instant
func NewMockSourceAt(anchor time.Time) *MockSource {
	return &MockSource{anchor: anchor}
}

type mockFiling struct {
	hoursAgo int
	filing   insider.RawFiling
}

// Fixture timeline, hours before the anchor. The first day holds a
// cluster of AAPL buys with no baseline, a TSLA sale far above its baseline,
// and one malformed row. Days two through eight hold routine activity plus
// GOOG buying that stops before the final day.
var mockFilings = []mockFiling{
	{2, insider.RawFiling{"company": "AAPL", "insider": "Timothy Donovan", "transaction": "purchase", "shares": 12000, "price": 187.50}},
	{3, insider.RawFiling{"company": "TSLA", "insider": "Rhonda Feldman", "transaction": "sale", "shares": 95000, "price": 242.30}},
	{5, insider.RawFiling{"company": "aapl", "insider": "Sarah Chen", "transaction": "BUY", "shares": "8,500", "price": 186.90}},
	{7, insider.RawFiling{"company": "MSFT", "insider": "David Okafor", "transaction": "sale", "shares": "4,000", "price": 415.00}},
	{9, insider.RawFiling{"company": "AAPL", "insider": "Miguel Alvarez", "transaction": "purchase", "shares": 6400, "price": 188.10}},
	{12, insider.RawFiling{"company": "NVDA", "insider": "Priya Raghavan", "transaction": "purchase", "shares": 2500, "price": 118.75}},
	{16, insider.RawFiling{"company": nil, "insider": "", "transaction": "gift", "shares": "n/a", "price": "-"}},

	{30, insider.RawFiling{"company": "MSFT", "insider": "David Okafor", "transaction": "sale", "shares": 3800, "price": 410.20}},
	{45, insider.RawFiling{"company": "MSFT", "insider": "Laura Kimball", "transaction": "sell", "shares": "6,200", "price": 405.00}},
	{52, insider.RawFiling{"company": "TSLA", "insider": "Rhonda Feldman", "transaction": "sale", "shares": 1500, "price": 250.10}},
	{60, insider.RawFiling{"company": "NVDA", "insider": "Priya Raghavan", "transaction": "purchase", "shares": 2000, "price": 115.30}},
	{75, insider.RawFiling{"company": "NVDA", "insider": "Tom Becker", "transaction": "buy", "shares": 1800, "price": 114.90}},
	{90, insider.RawFiling{"company": "GOOG", "insider": "Anil Mehta", "transaction": "purchase", "shares": 5000, "price": 172.40}},
	{110, insider.RawFiling{"company": "GOOG", "insider": "Anil Mehta", "transaction": "purchase", "shares": "2,500", "price": 170.80}},
	{130, insider.RawFiling{"company": "JPM", "insider": "Carol Straub", "transaction": "sale", "shares": 7000, "price": 198.60}},
	{150, insider.RawFiling{"company": "MSFT", "insider": "David Okafor", "transaction": "sale", "shares": 4100, "price": 402.50}},
	{170, insider.RawFiling{"company": "JPM", "insider": "Carol Straub", "transaction": "sale", "shares": 3200, "price": 195.00}},
}

// FetchFilings returns the fixture rows whose anchored timestamps fall in
// [from, to).
func (m *MockSource) FetchFilings(ctx context.Context, from, to time.Time) ([]insider.RawFiling, error) {
	filings := []insider.RawFiling{}

	for _, mf := range mockFilings {
		stamp := m.anchor.Add(-time.Duration(mf.hoursAgo) * time.Hour)
		if stamp.Before(from) || !stamp.Before(to) {
			continue
		}

		// Copy so callers can't mutate the fixtures.
		filing := insider.RawFiling{}
		for k, v := range mf.filing {
			filing[k] = v
		}
		filing["date"] = stamp.Format("2006-01-02")
		filing["source"] = m.Name()

		filings = append(filings, filing)
	}

	return filings, nil
}

// Name identifies this source in logs and provenance fields.
func (m *MockSource) Name() string {
	return "mock"
}
