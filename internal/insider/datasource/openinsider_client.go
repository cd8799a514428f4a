package datasource

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"insider-radar/internal/api"
	"insider-radar/internal/insider"
)

const defaultOpenInsiderBaseURL = "http://openinsider.com"

// Screener table column layout. OpenInsider serves a fixed-width table;
// anything with fewer cells is a header or an empty-result row.
const (
	oiColTradeDate = 2
	oiColTicker    = 3
	oiColInsider   = 5
	oiColTradeType = 7
	oiColPrice     = 8
	oiColQuantity  = 9
	oiMinColumns   = 13
)

// OpenInsiderClient scrapes the OpenInsider Form 4 screener. No API key
// needed, which makes it the default provider.
type OpenInsiderClient struct {
	client *api.Client
}

// NewOpenInsiderClient creates an OpenInsider client. An empty baseURL
// selects the production site.
func NewOpenInsiderClient(baseURL string, timeout time.Duration) *OpenInsiderClient {
	if baseURL == "" {
		baseURL = defaultOpenInsiderBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []api.ClientOption{
		api.WithBaseURL(baseURL),
		api.WithTimeout(timeout),
		api.WithLogging(true),
	}
	for key, value := range api.BrowserHeaders() {
		opts = append(opts, api.WithHeader(key, value))
	}

	return &OpenInsiderClient{
		client: api.NewClient(opts...),
	}
}

// FetchFilings retrieves screener rows filed between from and to, one raw
// filing per table row.
func (o *OpenInsiderClient) FetchFilings(ctx context.Context, from, to time.Time) ([]insider.RawFiling, error) {
	dateRange := fmt.Sprintf("%s - %s", from.Format("01/02/2006"), to.Format("01/02/2006"))

	req := api.NewRequest(http.MethodGet, "/screener").
		WithContext(ctx).
		WithQuery("fd", "-1").
		WithQuery("fdr", dateRange).
		WithQuery("td", "0").
		WithQuery("cnt", "500").
		WithQuery("page", "1")

	resp, err := o.client.DoWithRetry(req, nil)
	if err != nil {
		return nil, fmt.Errorf("openinsider request failed: %w", err)
	}

	return o.parseScreenerTable(resp.Body)
}

// Name identifies this source in logs and provenance fields.
func (o *OpenInsiderClient) Name() string {
	return "openinsider"
}

func (o *OpenInsiderClient) parseScreenerTable(data []byte) ([]insider.RawFiling, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse screener HTML: %w", err)
	}

	filings := []insider.RawFiling{}
	doc.Find("table.tinytable tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < oiMinColumns {
			return
		}

		cell := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		filings = append(filings, insider.RawFiling{
			"company":     cell(oiColTicker),
			"insider":     cell(oiColInsider),
			"transaction": screenerTradeType(cell(oiColTradeType)),
			// Quantity is signed on the screener; direction already lives
			// in the trade type.
			"shares": strings.TrimLeft(cell(oiColQuantity), "+-"),
			"price":  cell(oiColPrice),
			"date":   cell(oiColTradeDate),
			"source": o.Name(),
		})
	})

	return filings, nil
}

// screenerTradeType maps OpenInsider trade type labels ("P - Purchase",
// "S - Sale", "S - Sale+OE") to the labels the normalizer understands.
func screenerTradeType(label string) string {
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "purchase"), strings.Contains(lower, "buy"):
		return "purchase"
	case strings.Contains(lower, "sale"), strings.Contains(lower, "sell"):
		return "sale"
	case label == "":
		return "unknown"
	default:
		return label
	}
}
