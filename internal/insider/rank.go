package insider

import "sort"

// RankBy selects the ordering field for a ranked comparison
type RankBy string

const (
	RankByAbsoluteDelta RankBy = "ABSOLUTE_DELTA"
	RankByPercentDelta  RankBy = "PERCENT_DELTA"
	RankByCurrentTotal  RankBy = "CURRENT_TOTAL"
)

// Rank orders results descending by the chosen field and truncates to limit.
// Ties always break by key in ascending order, so the ordering is fully
// deterministic. For percent ranking, new activity outranks any finite
// percent change. A limit of zero or less means no truncation. The input
// slice is left untouched.
func Rank(results []ComparisonResult, by RankBy, limit int) []ComparisonResult {
	ranked := make([]ComparisonResult, len(results))
	copy(ranked, results)

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if by == RankByPercentDelta {
			if a.NewActivity != b.NewActivity {
				return a.NewActivity
			}
		}
		av, bv := rankValue(a, by), rankValue(b, by)
		if av != bv {
			return av > bv
		}
		return a.Key < b.Key
	})

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankValue(r ComparisonResult, by RankBy) float64 {
	switch by {
	case RankByPercentDelta:
		return r.PercentDelta
	case RankByCurrentTotal:
		return r.CurrentTotal
	default:
		return r.AbsoluteDelta
	}
}

// CountAnomalies returns how many results carry the anomaly flag
func CountAnomalies(results []ComparisonResult) int {
	n := 0
	for _, r := range results {
		if r.IsAnomalous {
			n++
		}
	}
	return n
}
