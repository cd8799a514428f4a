package insider

import "time"

// Sentinel values substituted for missing or malformed fields. Records are
// never dropped; they degrade to these defaults so batch counts stay accurate.
const (
	UnknownCompany = "UNKNOWN"
	UnknownInsider = "Unknown"
)

// TransactionType classifies a disclosed transaction
type TransactionType string

const (
	Purchase           TransactionType = "PURCHASE"
	Sale               TransactionType = "SALE"
	UnknownTransaction TransactionType = "UNKNOWN"
)

// FilingRecord is one normalized insider transaction disclosure.
// Immutable once produced by Normalize; downstream stages read it only.
type FilingRecord struct {
	Company         string          `json:"company"`           // uppercase, trimmed, never empty
	Insider         string          `json:"insider"`           // disclosing person, never empty
	TransactionType TransactionType `json:"transaction_type"`
	Shares          int64           `json:"shares"`            // non-negative
	PricePerShare   float64         `json:"price_per_share"`   // non-negative
	FilingDate      time.Time       `json:"filing_date"`
	Source          string          `json:"source,omitempty"`  // provenance only, never used in analysis
}

// Value returns the transaction value of the record
func (r FilingRecord) Value() float64 {
	return float64(r.Shares) * r.PricePerShare
}

// GroupBy selects the aggregation key
type GroupBy string

const (
	GroupByCompany        GroupBy = "COMPANY"
	GroupByCompanyInsider GroupBy = "COMPANY_INSIDER"
)

// Metric selects which aggregate total a comparison runs over
type Metric string

const (
	MetricShares Metric = "SHARES"
	MetricValue  Metric = "VALUE"
)

// AggregatedEntity holds the per-key sums for one window
type AggregatedEntity struct {
	Key               string                  `json:"key"`
	TotalShares       int64                   `json:"total_shares"`
	TotalValue        float64                 `json:"total_value"`
	TransactionCounts map[TransactionType]int `json:"transaction_counts"`
	RecordCount       int                     `json:"record_count"`
}

// Total returns the entity's total for the given metric
func (e *AggregatedEntity) Total(metric Metric) float64 {
	if e == nil {
		return 0
	}
	if metric == MetricShares {
		return float64(e.TotalShares)
	}
	return e.TotalValue
}

// AggregateSet is an insertion-ordered mapping from grouping key to entity.
// Iteration order is the order keys first appeared in the input, which makes
// repeated runs over the same input byte-identical.
type AggregateSet struct {
	keys     []string
	entities map[string]*AggregatedEntity
}

// NewAggregateSet returns an empty set
func NewAggregateSet() *AggregateSet {
	return &AggregateSet{entities: make(map[string]*AggregatedEntity)}
}

// Get returns the entity for key, or nil when absent
func (s *AggregateSet) Get(key string) *AggregatedEntity {
	if s == nil {
		return nil
	}
	return s.entities[key]
}

// Keys returns grouping keys in insertion order
func (s *AggregateSet) Keys() []string {
	if s == nil {
		return nil
	}
	return s.keys
}

// Len returns the number of distinct keys
func (s *AggregateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Entities returns the entities in insertion order
func (s *AggregateSet) Entities() []*AggregatedEntity {
	if s == nil {
		return nil
	}
	out := make([]*AggregatedEntity, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.entities[k])
	}
	return out
}

// TotalRecords sums RecordCount across all keys. Equals the input length of
// the Aggregate call that built the set, for any grouping.
func (s *AggregateSet) TotalRecords() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, e := range s.entities {
		n += e.RecordCount
	}
	return n
}

func (s *AggregateSet) upsert(key string) *AggregatedEntity {
	if e, ok := s.entities[key]; ok {
		return e
	}
	e := &AggregatedEntity{
		Key:               key,
		TransactionCounts: make(map[TransactionType]int),
	}
	s.entities[key] = e
	s.keys = append(s.keys, key)
	return e
}

// ComparisonResult is the current-vs-baseline outcome for one key
type ComparisonResult struct {
	Key           string  `json:"key"`
	CurrentTotal  float64 `json:"current_total"`
	BaselineTotal float64 `json:"baseline_total"`
	AbsoluteDelta float64 `json:"absolute_delta"`
	// PercentDelta is a fraction: -0.9 means -90%. Meaningless when
	// NewActivity is set, since the baseline was zero.
	PercentDelta float64 `json:"percent_delta"`
	NewActivity  bool    `json:"new_activity"`
	IsAnomalous  bool    `json:"is_anomalous"`
	Reason       string  `json:"reason,omitempty"`
}

// PercentLabel renders the percent change for reports: "new" for activity
// without a baseline, "stopped" for activity that ceased, otherwise a signed
// percentage.
func (c ComparisonResult) PercentLabel() string {
	if c.NewActivity {
		return "new"
	}
	if c.CurrentTotal == 0 && c.BaselineTotal > 0 {
		return "stopped"
	}
	return formatPercent(c.PercentDelta)
}
