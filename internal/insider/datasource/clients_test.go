package datasource

import (
	"testing"

	"insider-radar/internal/insider"
)

const secAPIFixture = `{
  "total": {"value": 2, "relation": "eq"},
  "transactions": [
    {
      "periodOfReport": "2026-08-18",
      "issuer": {"cik": "320193", "name": "Apple Inc", "tradingSymbol": "AAPL"},
      "reportingOwner": {"cik": "1214156", "name": "COOK TIMOTHY D"},
      "nonDerivativeTable": {
        "transactions": [
          {"transactionDate": "2026-08-18", "coding": {"code": "P"}, "amounts": {"shares": 12000, "pricePerShare": 187.5, "acquiredDisposedCode": "A"}},
          {"transactionDate": "2026-08-18", "coding": {"code": "M"}, "amounts": {"shares": 500, "pricePerShare": 0, "acquiredDisposedCode": "A"}}
        ]
      }
    },
    {
      "filedAt": "2026-08-19T16:05:00-04:00",
      "issuer": {"name": "Globex Corp"},
      "reportingOwner": {"name": "SMITH JANE"},
      "nonDerivativeTable": {}
    }
  ]
}`

func TestSECAPIParseTransactions(t *testing.T) {
	client := NewSECAPIClient("", "test-key", 0)

	filings, total, err := client.parseTransactions([]byte(secAPIFixture))
	if err != nil {
		t.Fatalf("parseTransactions failed: %v", err)
	}

	if total != 2 {
		t.Errorf("Expected total 2, got %d", total)
	}
	if len(filings) != 3 {
		t.Fatalf("Expected 3 flattened filings, got %d", len(filings))
	}

	first := filings[0]
	if first["company"] != "AAPL" {
		t.Errorf("Expected company AAPL, got %v", first["company"])
	}
	if first["insider"] != "COOK TIMOTHY D" {
		t.Errorf("Expected insider COOK TIMOTHY D, got %v", first["insider"])
	}
	if first["transaction"] != "purchase" {
		t.Errorf("Expected transaction purchase for code P, got %v", first["transaction"])
	}
	if first["source"] != "sec-api" {
		t.Errorf("Expected source sec-api, got %v", first["source"])
	}

	// Code M falls back to the acquired flag.
	if filings[1]["transaction"] != "buy" {
		t.Errorf("Expected transaction buy for code M + acquired A, got %v", filings[1]["transaction"])
	}

	// Holdings-only filing keeps a zero-share row.
	holdings := filings[2]
	if holdings["company"] != "Globex Corp" {
		t.Errorf("Expected issuer name fallback, got %v", holdings["company"])
	}
	if holdings["transaction"] != "unknown" {
		t.Errorf("Expected transaction unknown, got %v", holdings["transaction"])
	}
	if holdings["date"] != "2026-08-19T16:05:00-04:00" {
		t.Errorf("Expected filedAt fallback date, got %v", holdings["date"])
	}
}

func TestSECAPIParsedFilingsNormalize(t *testing.T) {
	client := NewSECAPIClient("", "test-key", 0)

	filings, _, err := client.parseTransactions([]byte(secAPIFixture))
	if err != nil {
		t.Fatalf("parseTransactions failed: %v", err)
	}

	records := insider.Normalize(filings)
	if len(records) != len(filings) {
		t.Fatalf("Expected %d records, got %d", len(filings), len(records))
	}

	if records[0].Shares != 12000 {
		t.Errorf("Expected 12000 shares, got %d", records[0].Shares)
	}
	if records[0].PricePerShare != 187.5 {
		t.Errorf("Expected price 187.5, got %v", records[0].PricePerShare)
	}
	if records[0].TransactionType != insider.Purchase {
		t.Errorf("Expected Purchase, got %v", records[0].TransactionType)
	}
	if records[1].TransactionType != insider.Purchase {
		t.Errorf("Expected buy alias to normalize to Purchase, got %v", records[1].TransactionType)
	}
	if records[2].TransactionType != insider.UnknownTransaction {
		t.Errorf("Expected Unknown for holdings row, got %v", records[2].TransactionType)
	}
}

func TestTransactionLabel(t *testing.T) {
	tests := []struct {
		code             string
		acquiredDisposed string
		expected         string
	}{
		{"P", "", "purchase"},
		{"p", "A", "purchase"},
		{"S", "D", "sale"},
		{"M", "A", "buy"},
		{"F", "D", "sell"},
		{"G", "", "G"},
		{"", "", "unknown"},
	}

	for _, tt := range tests {
		got := transactionLabel(tt.code, tt.acquiredDisposed)
		if got != tt.expected {
			t.Errorf("transactionLabel(%q, %q): expected %q, got %q", tt.code, tt.acquiredDisposed, tt.expected, got)
		}
	}
}

const screenerFixture = `<html><body>
<table class="tinytable">
<thead><tr><th>X</th><th>Filing Date</th><th>Trade Date</th><th>Ticker</th><th>Company Name</th><th>Insider Name</th><th>Title</th><th>Trade Type</th><th>Price</th><th>Qty</th><th>Owned</th><th>dOwn</th><th>Value</th></tr></thead>
<tbody>
<tr><td></td><td>2026-08-20 16:30:11</td><td>2026-08-18</td><td><a href="/AAPL">AAPL</a></td><td>Apple Inc</td><td><a href="/insider">Cook Timothy</a></td><td>CEO</td><td>P - Purchase</td><td>$187.50</td><td>+12,000</td><td>3,280,000</td><td>+1%</td><td>+$2,250,000</td></tr>
<tr><td></td><td>2026-08-20 09:12:44</td><td>2026-08-19</td><td><a href="/TSLA">TSLA</a></td><td>Tesla Inc</td><td><a href="/insider">Feldman Rhonda</a></td><td>CFO</td><td>S - Sale+OE</td><td>$242.30</td><td>-95,000</td><td>410,000</td><td>-19%</td><td>-$23,018,500</td></tr>
<tr><td colspan="13">1-2 of 2</td></tr>
</tbody>
</table>
</body></html>`

func TestOpenInsiderParseScreenerTable(t *testing.T) {
	client := NewOpenInsiderClient("", 0)

	filings, err := client.parseScreenerTable([]byte(screenerFixture))
	if err != nil {
		t.Fatalf("parseScreenerTable failed: %v", err)
	}

	if len(filings) != 2 {
		t.Fatalf("Expected 2 filings, got %d", len(filings))
	}

	buy := filings[0]
	if buy["company"] != "AAPL" {
		t.Errorf("Expected company AAPL, got %v", buy["company"])
	}
	if buy["insider"] != "Cook Timothy" {
		t.Errorf("Expected insider Cook Timothy, got %v", buy["insider"])
	}
	if buy["transaction"] != "purchase" {
		t.Errorf("Expected transaction purchase, got %v", buy["transaction"])
	}
	if buy["shares"] != "12,000" {
		t.Errorf("Expected unsigned quantity 12,000, got %v", buy["shares"])
	}
	if buy["date"] != "2026-08-18" {
		t.Errorf("Expected trade date 2026-08-18, got %v", buy["date"])
	}
	if buy["source"] != "openinsider" {
		t.Errorf("Expected source openinsider, got %v", buy["source"])
	}

	sell := filings[1]
	if sell["transaction"] != "sale" {
		t.Errorf("Expected transaction sale for Sale+OE, got %v", sell["transaction"])
	}
	if sell["shares"] != "95,000" {
		t.Errorf("Expected sign stripped from quantity, got %v", sell["shares"])
	}
}

func TestOpenInsiderParsedFilingsNormalize(t *testing.T) {
	client := NewOpenInsiderClient("", 0)

	filings, err := client.parseScreenerTable([]byte(screenerFixture))
	if err != nil {
		t.Fatalf("parseScreenerTable failed: %v", err)
	}

	records := insider.Normalize(filings)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	if records[0].Shares != 12000 {
		t.Errorf("Expected 12000 shares from +12,000, got %d", records[0].Shares)
	}
	if records[0].PricePerShare != 187.5 {
		t.Errorf("Expected price 187.5 from $187.50, got %v", records[0].PricePerShare)
	}
	if records[1].Shares != 95000 {
		t.Errorf("Expected 95000 shares from -95,000, got %d", records[1].Shares)
	}
	if records[1].TransactionType != insider.Sale {
		t.Errorf("Expected Sale, got %v", records[1].TransactionType)
	}
}

func TestScreenerTradeType(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{"P - Purchase", "purchase"},
		{"S - Sale", "sale"},
		{"S - Sale+OE", "sale"},
		{"A - Grant", "A - Grant"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		got := screenerTradeType(tt.label)
		if got != tt.expected {
			t.Errorf("screenerTradeType(%q): expected %q, got %q", tt.label, tt.expected, got)
		}
	}
}
