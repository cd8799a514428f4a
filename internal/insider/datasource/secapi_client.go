package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"insider-radar/internal/api"
	"insider-radar/internal/insider"
)

const (
	defaultSECAPIBaseURL = "https://api.sec-api.io"

	// sec-api caps page size at a few hundred; one baseline week of Form 4s
	// can run past a single page.
	secAPIPageSize = 200
	secAPIMaxPages = 5
)

// SECAPIClient fetches parsed Form 4 transactions from sec-api.io.
// Requires an API key (https://sec-api.io).
type SECAPIClient struct {
	client *api.Client
	apiKey string
}

// NewSECAPIClient creates a sec-api.io client. An empty baseURL selects the
// production endpoint.
func NewSECAPIClient(baseURL, apiKey string, timeout time.Duration) *SECAPIClient {
	if baseURL == "" {
		baseURL = defaultSECAPIBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &SECAPIClient{
		client: api.NewClient(
			api.WithBaseURL(baseURL),
			api.WithTimeout(timeout),
			api.WithHeader("Accept", "application/json"),
			api.WithLogging(true),
		),
		apiKey: apiKey,
	}
}

// FetchFilings retrieves insider transactions filed between from and to,
// flattened to one raw filing per transaction row.
func (s *SECAPIClient) FetchFilings(ctx context.Context, from, to time.Time) ([]insider.RawFiling, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("sec-api key not configured")
	}

	query := fmt.Sprintf("documentType:\"4\" AND filedAt:[%s TO %s]",
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	filings := []insider.RawFiling{}
	for page := 0; page < secAPIMaxPages; page++ {
		body := map[string]interface{}{
			"query": query,
			"from":  page * secAPIPageSize,
			"size":  secAPIPageSize,
			"sort":  []map[string]interface{}{{"filedAt": map[string]interface{}{"order": "desc"}}},
		}

		req := api.NewRequest(http.MethodPost, "/insider-trading").
			WithContext(ctx).
			WithBody(body).
			WithHeader("Authorization", s.apiKey)

		resp, err := s.client.DoWithRetry(req, nil)
		if err != nil {
			return nil, fmt.Errorf("sec-api request failed: %w", err)
		}

		pageFilings, total, err := s.parseTransactions(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse sec-api response: %w", err)
		}

		filings = append(filings, pageFilings...)
		if (page+1)*secAPIPageSize >= total {
			break
		}
	}

	return filings, nil
}

// Name identifies this source in logs and provenance fields.
func (s *SECAPIClient) Name() string {
	return "sec-api"
}

// parseTransactions flattens the sec-api insider-trading response. Each
// filing carries a non-derivative table; every table row becomes its own
// raw filing so share counts aggregate per trade.
func (s *SECAPIClient) parseTransactions(data []byte) ([]insider.RawFiling, int, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, 0, err
	}

	total := 0
	if totalObj := getMap(payload, "total"); totalObj != nil {
		total = int(getNumber(totalObj, "value"))
	}

	items, _ := payload["transactions"].([]interface{})
	filings := []insider.RawFiling{}

	for _, item := range items {
		tx, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		issuer := getMap(tx, "issuer")
		owner := getMap(tx, "reportingOwner")

		company := getString(issuer, "tradingSymbol")
		if company == "" {
			company = getString(issuer, "name")
		}
		insiderName := getString(owner, "name")

		filedDate := getString(tx, "periodOfReport")
		if filedDate == "" {
			filedDate = getString(tx, "filedAt")
		}

		table := getMap(tx, "nonDerivativeTable")
		rows, _ := table["transactions"].([]interface{})

		if len(rows) == 0 {
			// Holdings-only filing. Keep a zero-share row so the filing
			// still shows up in record counts.
			filings = append(filings, insider.RawFiling{
				"company":     company,
				"insider":     insiderName,
				"transaction": "unknown",
				"shares":      0,
				"price":       0,
				"date":        filedDate,
				"source":      s.Name(),
			})
			continue
		}

		for _, r := range rows {
			row, ok := r.(map[string]interface{})
			if !ok {
				continue
			}

			coding := getMap(row, "coding")
			amounts := getMap(row, "amounts")

			date := getString(row, "transactionDate")
			if date == "" {
				date = filedDate
			}

			filings = append(filings, insider.RawFiling{
				"company":     company,
				"insider":     insiderName,
				"transaction": transactionLabel(getString(coding, "code"), getString(amounts, "acquiredDisposedCode")),
				"shares":      amounts["shares"],
				"price":       amounts["pricePerShare"],
				"date":        date,
				"source":      s.Name(),
			})
		}
	}

	return filings, total, nil
}

// transactionLabel maps SEC transaction codes to the labels the normalizer
// understands. Code P is an open-market purchase, S an open-market sale.
// Other codes (grants, exercises, gifts) fall back to the acquired/disposed
// flag, then to the raw code so they normalize as Unknown.
func transactionLabel(code, acquiredDisposed string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "P":
		return "purchase"
	case "S":
		return "sale"
	}

	switch strings.ToUpper(strings.TrimSpace(acquiredDisposed)) {
	case "A":
		return "buy"
	case "D":
		return "sell"
	}

	if code == "" {
		return "unknown"
	}
	return code
}

func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if val, ok := m[key]; ok {
		if sub, ok := val.(map[string]interface{}); ok {
			return sub
		}
	}
	return nil
}

func getNumber(m map[string]interface{}, key string) float64 {
	if val, ok := m[key]; ok {
		if num, ok := val.(float64); ok {
			return num
		}
	}
	return 0
}
