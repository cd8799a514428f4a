package insider

import "fmt"

// AnomalyPolicy holds the configurable thresholds for flagging a comparison.
// Threshold is a fraction of the baseline: 2.0 flags moves of at least 200%.
// MinActivityFloor is the metric total a brand-new key must reach to count as
// significant.
type AnomalyPolicy struct {
	Threshold        float64 `json:"threshold"`
	MinActivityFloor float64 `json:"min_activity_floor"`
}

// DefaultAnomalyPolicy returns the stock policy used when none is configured
func DefaultAnomalyPolicy() AnomalyPolicy {
	return AnomalyPolicy{Threshold: 2.0, MinActivityFloor: 10000}
}

// Compare walks the union of keys across both windows and produces one
// ComparisonResult per key. Three cases are kept distinct on purpose:
//
//   - key only in current: baseline is zero, the percent change is undefined,
//     and the result carries the new-activity marker instead of a number
//   - key only in baseline: current is zero and the percent change is -100%
//   - key in both: percent change is delta over baseline
//
// Division by a zero baseline never happens; the new-activity marker stands
// in for the undefined ratio. Result order follows current-window insertion
// order, then baseline-only keys in baseline insertion order.
func Compare(current, baseline *AggregateSet, metric Metric, policy AnomalyPolicy) []ComparisonResult {
	results := make([]ComparisonResult, 0, current.Len()+baseline.Len())

	for _, key := range current.Keys() {
		results = append(results, compareKey(key, current.Get(key), baseline.Get(key), metric, policy))
	}
	for _, key := range baseline.Keys() {
		if current.Get(key) != nil {
			continue
		}
		results = append(results, compareKey(key, nil, baseline.Get(key), metric, policy))
	}

	return results
}

func compareKey(key string, cur, base *AggregatedEntity, metric Metric, policy AnomalyPolicy) ComparisonResult {
	r := ComparisonResult{
		Key:           key,
		CurrentTotal:  cur.Total(metric),
		BaselineTotal: base.Total(metric),
	}
	r.AbsoluteDelta = r.CurrentTotal - r.BaselineTotal

	if r.BaselineTotal == 0 {
		r.NewActivity = true
		if r.CurrentTotal >= policy.MinActivityFloor {
			r.IsAnomalous = true
			r.Reason = "new significant activity"
		} else {
			r.Reason = "new activity"
		}
		return r
	}

	r.PercentDelta = r.AbsoluteDelta / r.BaselineTotal
	if abs(r.PercentDelta) >= policy.Threshold {
		r.IsAnomalous = true
	}

	switch {
	case r.CurrentTotal == 0:
		r.Reason = "activity stopped"
	case r.IsAnomalous:
		r.Reason = fmt.Sprintf("%s vs baseline", formatPercent(r.PercentDelta))
	}
	return r
}

func formatPercent(fraction float64) string {
	return fmt.Sprintf("%+.1f%%", fraction*100)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
