package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"insider-radar/internal/insider"
	"insider-radar/internal/news"
)

// ReportFormat specifies the output format for activity reports
type ReportFormat string

const (
	FormatJSON     ReportFormat = "json"
	FormatText     ReportFormat = "text"
	FormatCSV      ReportFormat = "csv"
	FormatMarkdown ReportFormat = "markdown"
)

// Dataset is everything a report is built from: both analyzed windows, the
// ranked comparison, and the optional enrichments the pipeline gathered.
type Dataset struct {
	GeneratedAt time.Time
	Source      string
	GroupBy     insider.GroupBy
	Metric      insider.Metric

	CurrentFrom  time.Time
	CurrentTo    time.Time
	BaselineFrom time.Time
	BaselineTo   time.Time

	CurrentRecords   int
	BaselineRecords  int
	DefaultedRecords int

	Current  *insider.AggregateSet
	Baseline *insider.AggregateSet

	// Results is the ranked comparison, most significant first.
	Results []insider.ComparisonResult

	// Sentiment holds news sentiment per entity key, when gathered.
	Sentiment map[string]news.Sentiment

	// Narrative is the optional completion-generated executive summary.
	Narrative string
}

// Anomalies returns the flagged results in rank order.
func (d *Dataset) Anomalies() []insider.ComparisonResult {
	out := []insider.ComparisonResult{}
	for _, r := range d.Results {
		if r.IsAnomalous {
			out = append(out, r)
		}
	}
	return out
}

// Reporter handles generation and storage of activity reports
type Reporter struct {
	outputDir string
}

// NewReporter creates a new reporter
func NewReporter(outputDir string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
	}
}

// GenerateReport renders the dataset in the specified format
func (r *Reporter) GenerateReport(dataset *Dataset, format ReportFormat) (string, error) {
	switch format {
	case FormatJSON:
		return r.generateJSONReport(dataset)
	case FormatText:
		return r.generateTextReport(dataset)
	case FormatCSV:
		return r.generateCSVReport(dataset)
	case FormatMarkdown:
		return r.generateMarkdownReport(dataset)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// SaveReport renders the dataset and writes it to the output directory,
// returning the path of the written file.
func (r *Reporter) SaveReport(dataset *Dataset, format ReportFormat) (string, error) {
	content, err := r.GenerateReport(dataset, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return "", err
	}

	timestamp := dataset.GeneratedAt.Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("insider_radar_%s.%s", timestamp, extensionFor(format))
	path := filepath.Join(r.outputDir, filename)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}

	return path, nil
}

func extensionFor(format ReportFormat) string {
	switch format {
	case FormatText:
		return "txt"
	case FormatMarkdown:
		return "md"
	default:
		return string(format)
	}
}

type jsonWindow struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Records int    `json:"records"`
}

type jsonReport struct {
	GeneratedAt      string                      `json:"generated_at"`
	Source           string                      `json:"source"`
	GroupBy          string                      `json:"group_by"`
	Metric           string                      `json:"metric"`
	CurrentWindow    jsonWindow                  `json:"current_window"`
	BaselineWindow   jsonWindow                  `json:"baseline_window"`
	DefaultedRecords int                         `json:"defaulted_records"`
	AnomalyCount     int                         `json:"anomaly_count"`
	Results          []insider.ComparisonResult  `json:"results"`
	Entities         []*insider.AggregatedEntity `json:"current_entities"`
	Chart            ChartData                   `json:"chart"`
	Sentiment        map[string]news.Sentiment   `json:"sentiment,omitempty"`
	Narrative        string                      `json:"narrative,omitempty"`
}

func (r *Reporter) generateJSONReport(dataset *Dataset) (string, error) {
	view := jsonReport{
		GeneratedAt: dataset.GeneratedAt.Format(time.RFC3339),
		Source:      dataset.Source,
		GroupBy:     string(dataset.GroupBy),
		Metric:      string(dataset.Metric),
		CurrentWindow: jsonWindow{
			From:    dataset.CurrentFrom.Format(time.RFC3339),
			To:      dataset.CurrentTo.Format(time.RFC3339),
			Records: dataset.CurrentRecords,
		},
		BaselineWindow: jsonWindow{
			From:    dataset.BaselineFrom.Format(time.RFC3339),
			To:      dataset.BaselineTo.Format(time.RFC3339),
			Records: dataset.BaselineRecords,
		},
		DefaultedRecords: dataset.DefaultedRecords,
		AnomalyCount:     insider.CountAnomalies(dataset.Results),
		Results:          dataset.Results,
		Entities:         dataset.Current.Entities(),
		Chart:            BuildChartData(dataset, 10),
		Sentiment:        dataset.Sentiment,
		Narrative:        dataset.Narrative,
	}

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *Reporter) generateTextReport(dataset *Dataset) (string, error) {
	var sb strings.Builder

	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString("INSIDER ACTIVITY REPORT\n")
	sb.WriteString("=" + strings.Repeat("=", 78) + "\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n", dataset.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Data Source: %s\n", dataset.Source))
	sb.WriteString(fmt.Sprintf("Current Window: %s to %s (%d filings)\n",
		dataset.CurrentFrom.Format("2006-01-02 15:04"),
		dataset.CurrentTo.Format("2006-01-02 15:04"),
		dataset.CurrentRecords))
	sb.WriteString(fmt.Sprintf("Baseline Window: %s to %s (%d filings)\n",
		dataset.BaselineFrom.Format("2006-01-02 15:04"),
		dataset.BaselineTo.Format("2006-01-02 15:04"),
		dataset.BaselineRecords))
	sb.WriteString(fmt.Sprintf("Grouped By: %s, Metric: %s\n", dataset.GroupBy, dataset.Metric))
	if dataset.DefaultedRecords > 0 {
		sb.WriteString(fmt.Sprintf("Records With Defaulted Fields: %d\n", dataset.DefaultedRecords))
	}
	sb.WriteString("\n")

	r.addSummarySection(&sb, dataset)
	r.addFindingsSection(&sb, dataset)
	r.addMostActiveSection(&sb, dataset)
	r.addChartSection(&sb, dataset)
	r.addSentimentSection(&sb, dataset)
	r.addRecommendationsSection(&sb, dataset)

	sb.WriteString("\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("END OF REPORT\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	return sb.String(), nil
}

func (r *Reporter) addSummarySection(sb *strings.Builder, dataset *Dataset) {
	sb.WriteString("EXECUTIVE SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if dataset.Narrative != "" {
		sb.WriteString(dataset.Narrative + "\n\n")
	}
	sb.WriteString(r.summaryLine(dataset) + "\n")
}

// summaryLine is the deterministic one-line summary used when no narrative
// is available, and appended below the narrative when one is.
func (r *Reporter) summaryLine(dataset *Dataset) string {
	anomalies := insider.CountAnomalies(dataset.Results)
	line := fmt.Sprintf("The current window recorded %d filings across %d entities, against %d baseline filings. %d entities show anomalous activity.",
		dataset.CurrentRecords, dataset.Current.Len(), dataset.BaselineRecords, anomalies)

	if len(dataset.Results) > 0 {
		top := dataset.Results[0]
		line += fmt.Sprintf(" Largest mover: %s (%s).", top.Key, top.PercentLabel())
	}
	return line
}

func (r *Reporter) addFindingsSection(sb *strings.Builder, dataset *Dataset) {
	anomalies := dataset.Anomalies()

	sb.WriteString(fmt.Sprintf("\nKEY FINDINGS: %d ANOMALIES\n", len(anomalies)))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if len(anomalies) == 0 {
		sb.WriteString("\nNo anomalous activity detected.\n")
		return
	}

	for i, a := range anomalies {
		marker := "SHIFT"
		if a.NewActivity {
			marker = "NEW"
		} else if a.CurrentTotal == 0 {
			marker = "STOPPED"
		}
		sb.WriteString(fmt.Sprintf("\n%d. [%s] %s\n", i+1, marker, a.Key))
		sb.WriteString(fmt.Sprintf("   %s\n", a.Reason))
		sb.WriteString(fmt.Sprintf("   Current: %s, Baseline: %s\n",
			formatTotal(dataset.Metric, a.CurrentTotal),
			formatTotal(dataset.Metric, a.BaselineTotal)))
	}
}

func (r *Reporter) addMostActiveSection(sb *strings.Builder, dataset *Dataset) {
	if len(dataset.Results) == 0 {
		return
	}

	sb.WriteString("\n\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("MOST ACTIVE ENTITIES\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	limit := len(dataset.Results)
	if limit > 10 {
		limit = 10
	}

	for _, res := range dataset.Results[:limit] {
		sb.WriteString(fmt.Sprintf("\n• %s\n", res.Key))
		sb.WriteString(fmt.Sprintf("  Current: %s, Baseline: %s, Change: %s\n",
			formatTotal(dataset.Metric, res.CurrentTotal),
			formatTotal(dataset.Metric, res.BaselineTotal),
			res.PercentLabel()))
		if entity := dataset.Current.Get(res.Key); entity != nil {
			sb.WriteString(fmt.Sprintf("  Transactions: %d purchase, %d sale, %d unknown\n",
				entity.TransactionCounts[insider.Purchase],
				entity.TransactionCounts[insider.Sale],
				entity.TransactionCounts[insider.UnknownTransaction]))
		}
		if res.IsAnomalous {
			sb.WriteString("  ⚠ ANOMALOUS\n")
		}
	}
}

func (r *Reporter) addChartSection(sb *strings.Builder, dataset *Dataset) {
	chart := BuildChartData(dataset, 10)
	if len(chart.Labels) == 0 {
		return
	}

	sb.WriteString("\n\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("CHART DATA\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	sb.WriteString(fmt.Sprintf("\nOverall activity: %.0f filings in the current window vs %.1f filings/day in the baseline\n\n",
		chart.TotalCurrent, chart.TotalBaselineAvg))

	sb.WriteString(fmt.Sprintf("%-28s %16s %16s\n", "Entity", "Current", "Baseline/Day"))
	for i, label := range chart.Labels {
		sb.WriteString(fmt.Sprintf("%-28s %16.1f %16.1f\n", label, chart.Current[i], chart.BaselineAvg[i]))
	}
}

func (r *Reporter) addSentimentSection(sb *strings.Builder, dataset *Dataset) {
	if len(dataset.Sentiment) == 0 {
		return
	}

	sb.WriteString("\n\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("SENTIMENT SIGNALS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	// Walk results so sentiment output follows rank order, not map order
	for _, res := range dataset.Results {
		sentiment, ok := dataset.Sentiment[res.Key]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n• %s: %s (score %.2f, confidence %.2f) from %d articles\n",
			res.Key, sentiment.OverallSentiment, sentiment.OverallScore,
			sentiment.Confidence, sentiment.ArticleCount))
		if sentiment.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", sentiment.Recommendation))
		}
	}
}

func (r *Reporter) addRecommendationsSection(sb *strings.Builder, dataset *Dataset) {
	sb.WriteString("\n\n" + strings.Repeat("=", 80) + "\n")
	sb.WriteString("RECOMMENDATIONS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	for i, rec := range r.generateRecommendations(dataset) {
		sb.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, rec))
	}
}

// generateRecommendations produces tiered follow-up suggestions from the
// flagged results and any sentiment gathered for them.
func (r *Reporter) generateRecommendations(dataset *Dataset) []string {
	recs := []string{}

	anomalies := dataset.Anomalies()
	if len(anomalies) > 5 {
		anomalies = anomalies[:5]
	}

	for _, a := range anomalies {
		switch {
		case a.NewActivity:
			recs = append(recs, fmt.Sprintf("Review the filings behind %s: significant activity against an empty baseline.", a.Key))
		case a.PercentDelta > 0:
			recs = append(recs, fmt.Sprintf("%s activity is up %s on the baseline. Check for clustered insider moves.", a.Key, a.PercentLabel()))
		default:
			recs = append(recs, fmt.Sprintf("%s activity is down sharply (%s). Insiders may be stepping back.", a.Key, a.PercentLabel()))
		}

		if sentiment, ok := dataset.Sentiment[a.Key]; ok {
			if sentiment.OverallSentiment == "NEGATIVE" {
				recs = append(recs, fmt.Sprintf("Press coverage for %s is negative. Weigh the disclosures against the news cycle.", a.Key))
			}
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "No unusual activity detected. Continue routine monitoring.")
	}

	return recs
}

func (r *Reporter) generateCSVReport(dataset *Dataset) (string, error) {
	var sb strings.Builder

	sb.WriteString("GeneratedAt,Source,CurrentRecords,BaselineRecords,Anomalies\n")
	sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d\n\n",
		dataset.GeneratedAt.Format("2006-01-02 15:04:05"),
		dataset.Source,
		dataset.CurrentRecords,
		dataset.BaselineRecords,
		insider.CountAnomalies(dataset.Results)))

	sb.WriteString("Key,CurrentTotal,BaselineTotal,AbsoluteDelta,PercentChange,NewActivity,Anomalous,Reason\n")
	for _, res := range dataset.Results {
		sb.WriteString(fmt.Sprintf("\"%s\",%.2f,%.2f,%.2f,%s,%t,%t,\"%s\"\n",
			strings.ReplaceAll(res.Key, "\"", "\"\""), // Escape quotes
			res.CurrentTotal,
			res.BaselineTotal,
			res.AbsoluteDelta,
			res.PercentLabel(),
			res.NewActivity,
			res.IsAnomalous,
			strings.ReplaceAll(res.Reason, "\"", "\"\"")))
	}

	return sb.String(), nil
}

func (r *Reporter) generateMarkdownReport(dataset *Dataset) (string, error) {
	var sb strings.Builder

	sb.WriteString("# Insider Activity Report\n\n")
	sb.WriteString(fmt.Sprintf("**Generated:** %s  \n", dataset.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Data Source:** %s  \n", dataset.Source))
	sb.WriteString(fmt.Sprintf("**Current Window:** %s to %s (%d filings)  \n",
		dataset.CurrentFrom.Format("2006-01-02 15:04"),
		dataset.CurrentTo.Format("2006-01-02 15:04"),
		dataset.CurrentRecords))
	sb.WriteString(fmt.Sprintf("**Baseline Window:** %s to %s (%d filings)\n",
		dataset.BaselineFrom.Format("2006-01-02 15:04"),
		dataset.BaselineTo.Format("2006-01-02 15:04"),
		dataset.BaselineRecords))

	sb.WriteString("\n## Executive Summary\n\n")
	if dataset.Narrative != "" {
		sb.WriteString(dataset.Narrative + "\n\n")
	}
	sb.WriteString(r.summaryLine(dataset) + "\n")

	anomalies := dataset.Anomalies()
	sb.WriteString(fmt.Sprintf("\n## Key Findings (%d anomalies)\n\n", len(anomalies)))
	if len(anomalies) == 0 {
		sb.WriteString("No anomalous activity detected.\n")
	}
	for _, a := range anomalies {
		sb.WriteString(fmt.Sprintf("- **%s**: %s (current %s, baseline %s)\n",
			a.Key, a.Reason,
			formatTotal(dataset.Metric, a.CurrentTotal),
			formatTotal(dataset.Metric, a.BaselineTotal)))
	}

	if len(dataset.Results) > 0 {
		sb.WriteString("\n## Most Active Entities\n\n")
		sb.WriteString("| Key | Current | Baseline | Change |\n")
		sb.WriteString("|-----|--------:|---------:|-------:|\n")
		limit := len(dataset.Results)
		if limit > 10 {
			limit = 10
		}
		for _, res := range dataset.Results[:limit] {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				res.Key,
				formatTotal(dataset.Metric, res.CurrentTotal),
				formatTotal(dataset.Metric, res.BaselineTotal),
				res.PercentLabel()))
		}
	}

	chart := BuildChartData(dataset, 10)
	if len(chart.Labels) > 0 {
		sb.WriteString("\n## Chart Data\n\n")
		sb.WriteString(fmt.Sprintf("Overall activity: %.0f filings in the current window vs %.1f filings/day in the baseline.\n\n",
			chart.TotalCurrent, chart.TotalBaselineAvg))
		sb.WriteString("| Entity | Current | Baseline/Day |\n")
		sb.WriteString("|--------|--------:|-------------:|\n")
		for i, label := range chart.Labels {
			sb.WriteString(fmt.Sprintf("| %s | %.1f | %.1f |\n", label, chart.Current[i], chart.BaselineAvg[i]))
		}
	}

	if len(dataset.Sentiment) > 0 {
		sb.WriteString("\n## Sentiment Signals\n\n")
		for _, res := range dataset.Results {
			sentiment, ok := dataset.Sentiment[res.Key]
			if !ok {
				continue
			}
			sb.WriteString(fmt.Sprintf("- **%s**: %s (score %.2f) based on %d articles\n",
				res.Key, sentiment.OverallSentiment, sentiment.OverallScore, sentiment.ArticleCount))
		}
	}

	sb.WriteString("\n## Recommendations\n\n")
	for i, rec := range r.generateRecommendations(dataset) {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, rec))
	}

	return sb.String(), nil
}

func formatTotal(metric insider.Metric, v float64) string {
	if metric == insider.MetricValue {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("%.0f shares", v)
}

// NarrativePrompt builds the completion prompt for the optional executive
// narrative. The deterministic report never depends on the response.
func NarrativePrompt(dataset *Dataset) string {
	var sb strings.Builder

	sb.WriteString("Write a concise executive summary (2-3 sentences) of this insider trading activity comparison.\n\n")
	sb.WriteString(fmt.Sprintf("Current window: %s to %s, %d filings across %d entities.\n",
		dataset.CurrentFrom.Format("2006-01-02 15:04"),
		dataset.CurrentTo.Format("2006-01-02 15:04"),
		dataset.CurrentRecords, dataset.Current.Len()))
	sb.WriteString(fmt.Sprintf("Baseline window: %s to %s, %d filings.\n",
		dataset.BaselineFrom.Format("2006-01-02 15:04"),
		dataset.BaselineTo.Format("2006-01-02 15:04"),
		dataset.BaselineRecords))

	anomalies := dataset.Anomalies()
	if len(anomalies) > 0 {
		sb.WriteString("\nFlagged entities:\n")
		for _, a := range anomalies {
			sb.WriteString(fmt.Sprintf("- %s: %s (current %s, baseline %s)\n",
				a.Key, a.Reason,
				formatTotal(dataset.Metric, a.CurrentTotal),
				formatTotal(dataset.Metric, a.BaselineTotal)))
		}
	} else {
		sb.WriteString("\nNo entities were flagged as anomalous.\n")
	}

	sb.WriteString("\nRespond with plain text only, no headings or bullet points.")
	return sb.String()
}
