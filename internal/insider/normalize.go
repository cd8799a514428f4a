package insider

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// RawFiling is one loosely-structured filing as delivered by a fetch source.
// Field names and value types are not guaranteed; Normalize tolerates any shape.
type RawFiling map[string]interface{}

// Normalize converts raw filings into FilingRecords using the current clock
// for date fallbacks. Every input yields exactly one output record.
func Normalize(raws []RawFiling) []FilingRecord {
	records, _ := NormalizeAt(raws, time.Now())
	return records
}

// NormalizeAt is Normalize with a pinned processing date. The second return
// is the number of records that needed at least one default substitution.
// No input shape causes an error or a dropped record: missing or malformed
// fields degrade to sentinels and zeros, and the degradation is logged.
func NormalizeAt(raws []RawFiling, now time.Time) ([]FilingRecord, int) {
	records := make([]FilingRecord, 0, len(raws))
	defaulted := 0
	for i, raw := range raws {
		rec, clean := normalizeOne(raw, now)
		if !clean {
			defaulted++
			slog.Debug("filing defaulted during normalization",
				"index", i, "company", rec.Company, "source", rec.Source)
		}
		records = append(records, rec)
	}
	return records, defaulted
}

func normalizeOne(raw RawFiling, now time.Time) (FilingRecord, bool) {
	clean := true

	company := strings.ToUpper(strings.TrimSpace(rawString(raw, "company", "issuer")))
	if company == "" {
		company = UnknownCompany
		clean = false
	}

	insider := strings.TrimSpace(rawString(raw, "insider", "insider_name", "insiderName"))
	if insider == "" {
		insider = UnknownInsider
		clean = false
	}

	txRaw := rawString(raw, "transaction", "transactionType", "transaction_type")
	tx := ParseTransactionType(txRaw)
	if tx == UnknownTransaction && !isKnownUnknown(txRaw) {
		clean = false
	}

	shares, ok := rawShares(raw, "shares", "quantity")
	if !ok {
		clean = false
	}

	price, ok := rawPrice(raw, "price", "pricePerShare", "price_per_share")
	if !ok {
		clean = false
	}

	date, ok := rawDate(raw, now, "date", "filingDate", "filing_date")
	if !ok {
		clean = false
	}

	return FilingRecord{
		Company:         company,
		Insider:         insider,
		TransactionType: tx,
		Shares:          shares,
		PricePerShare:   price,
		FilingDate:      date,
		Source:          rawString(raw, "source"),
	}, clean
}

// ParseTransactionType maps a raw transaction label onto the enum.
// Matching is case-insensitive over trimmed input; anything outside the
// known purchase/sale vocabulary is UnknownTransaction.
func ParseTransactionType(s string) TransactionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "purchase", "buy":
		return Purchase
	case "sale", "sell":
		return Sale
	default:
		return UnknownTransaction
	}
}

// isKnownUnknown reports whether a raw transaction label legitimately maps to
// UnknownTransaction rather than being malformed. An explicit "unknown" or
// "other" is a valid disclosure, not a defaulted field.
func isKnownUnknown(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown", "other":
		return true
	default:
		return false
	}
}

func rawString(raw RawFiling, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func rawShares(raw RawFiling, keys ...string) (int64, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n < 0 {
				return 0, false
			}
			return int64(n), true
		case int:
			if n < 0 {
				return 0, false
			}
			return int64(n), true
		case int64:
			if n < 0 {
				return 0, false
			}
			return n, true
		case string:
			parsed, err := parseCount(n)
			if err != nil || parsed < 0 {
				return 0, false
			}
			return parsed, true
		default:
			return 0, false
		}
	}
	return 0, false
}

func rawPrice(raw RawFiling, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n < 0 {
				return 0, false
			}
			return n, true
		case int:
			if n < 0 {
				return 0, false
			}
			return float64(n), true
		case string:
			parsed, err := parseAmount(n)
			if err != nil || parsed < 0 {
				return 0, false
			}
			return parsed, true
		default:
			return 0, false
		}
	}
	return 0, false
}

func rawDate(raw RawFiling, now time.Time, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch d := v.(type) {
		case time.Time:
			return d, true
		case string:
			if t, ok := parseDate(d); ok {
				return t, true
			}
			return now, false
		default:
			return now, false
		}
	}
	return now, false
}

// parseCount parses an integer quantity, tolerating the comma and space
// grouping seen in scraped filing tables. Empty and "-" mean zero.
func parseCount(s string) (int64, error) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSpace(s)

	if s == "" || s == "-" {
		return 0, nil
	}

	return strconv.ParseInt(s, 10, 64)
}

// parseAmount parses a monetary amount, stripping currency noise
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.TrimSpace(s)

	if s == "" || s == "-" {
		return 0, nil
	}

	return strconv.ParseFloat(s, 64)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02-01-2006",
	"02-Jan-2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
