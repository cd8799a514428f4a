package report

// ChartData carries the numeric series behind the activity comparison chart.
// Rendering is left to downstream consumers; this package only produces the
// values.
type ChartData struct {
	Title       string    `json:"title"`
	Labels      []string  `json:"labels"`
	Current     []float64 `json:"current"`
	BaselineAvg []float64 `json:"baseline_avg"`

	// Overall filing counts for the two-bar window comparison. The baseline
	// count is averaged per day so windows of different lengths compare.
	TotalCurrent     float64 `json:"total_current"`
	TotalBaselineAvg float64 `json:"total_baseline_avg"`
}

// BuildChartData produces per-key series for the top ranked entities, with
// baseline totals averaged over the baseline window's length in days.
func BuildChartData(dataset *Dataset, topN int) ChartData {
	days := dataset.BaselineTo.Sub(dataset.BaselineFrom).Hours() / 24
	if days < 1 {
		days = 1
	}

	results := dataset.Results
	if topN > 0 && topN < len(results) {
		results = results[:topN]
	}

	chart := ChartData{
		Title:            "Insider Trading Activity Comparison",
		Labels:           make([]string, 0, len(results)),
		Current:          make([]float64, 0, len(results)),
		BaselineAvg:      make([]float64, 0, len(results)),
		TotalCurrent:     float64(dataset.CurrentRecords),
		TotalBaselineAvg: float64(dataset.BaselineRecords) / days,
	}

	for _, res := range results {
		chart.Labels = append(chart.Labels, res.Key)
		chart.Current = append(chart.Current, res.CurrentTotal)
		chart.BaselineAvg = append(chart.BaselineAvg, res.BaselineTotal/days)
	}

	return chart
}
