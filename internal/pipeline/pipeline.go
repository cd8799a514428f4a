// Package pipeline runs one end to end analysis pass: fetch both windows,
// normalize, aggregate, compare, rank, then hand the dataset to the optional
// collaborators for archiving, sentiment, narrative, and report output.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"insider-radar/internal/archive"
	"insider-radar/internal/insider"
	"insider-radar/internal/interfaces"
	"insider-radar/internal/logger"
	"insider-radar/internal/news"
	"insider-radar/internal/report"
	"insider-radar/internal/runlog"
	"insider-radar/internal/store"
)

// Collaborators are the optional stages around the core analysis. A nil
// member skips its stage; a failing member degrades the run instead of
// aborting it.
type Collaborators struct {
	Archive   *archive.Archive
	Sentiment *news.Service
	Completer interfaces.Completer
}

// Pipeline wires a filing source and configuration into a repeatable
// analysis run
type Pipeline struct {
	cfg      *store.Config
	source   interfaces.FilingSource
	reporter *report.Reporter
	collab   Collaborators
}

// Summary is the outcome of one run, handed back to callers and journaled
type Summary struct {
	Source           string
	CurrentFrom      time.Time
	CurrentTo        time.Time
	BaselineFrom     time.Time
	BaselineTo       time.Time
	CurrentRecords   int
	BaselineRecords  int
	DefaultedRecords int
	AnomalyCount     int
	TopKey           string
	ReportPaths      []string
	Status           string
	Duration         time.Duration
}

// New creates a pipeline over the given source and collaborators
func New(cfg *store.Config, source interfaces.FilingSource, collab Collaborators) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		reporter: report.NewReporter(cfg.Report.OutputDir),
		collab:   collab,
	}
}

// Run executes one full pass with windows anchored at the current time
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	return p.runAt(ctx, time.Now().UTC())
}

func (p *Pipeline) runAt(ctx context.Context, now time.Time) (*Summary, error) {
	op := logger.StartOperation(ctx, "analysis-run", "source", p.source.Name())
	ctx = op.GetContext()
	wallStart := time.Now()

	summary := &Summary{
		Source:      p.source.Name(),
		CurrentTo:   now,
		CurrentFrom: now.Add(-time.Duration(p.cfg.Windows.CurrentHours) * time.Hour),
	}
	// The baseline window ends where the current one begins, so the two
	// never overlap and together cover one contiguous span.
	summary.BaselineTo = summary.CurrentFrom
	summary.BaselineFrom = summary.BaselineTo.Add(-time.Duration(p.cfg.Windows.BaselineDays) * 24 * time.Hour)

	// A source failure is fatal: without filings there is nothing to analyze.
	logger.Stage(ctx, "fetch", "started")
	currentRaw, err := p.source.FetchFilings(ctx, summary.CurrentFrom, summary.CurrentTo)
	if err != nil {
		logger.Stage(ctx, "fetch", "failed")
		op.EndWithError(err)
		return nil, fmt.Errorf("fetch current window: %w", err)
	}
	baselineRaw, err := p.source.FetchFilings(ctx, summary.BaselineFrom, summary.BaselineTo)
	if err != nil {
		logger.Stage(ctx, "fetch", "failed")
		op.EndWithError(err)
		return nil, fmt.Errorf("fetch baseline window: %w", err)
	}
	logger.Stage(ctx, "fetch", "completed",
		"current_raw", len(currentRaw),
		"baseline_raw", len(baselineRaw))

	// Normalization never drops a record, so these counts match the raw
	// batch sizes above.
	current, currentDefaulted := insider.NormalizeAt(currentRaw, now)
	baseline, baselineDefaulted := insider.NormalizeAt(baselineRaw, now)
	logger.Filings(ctx, summary.Source, "current", len(current), currentDefaulted)
	logger.Filings(ctx, summary.Source, "baseline", len(baseline), baselineDefaulted)
	summary.CurrentRecords = len(current)
	summary.BaselineRecords = len(baseline)
	summary.DefaultedRecords = currentDefaulted + baselineDefaulted

	groupBy := insider.GroupBy(p.cfg.Analysis.GroupBy)
	metric := insider.Metric(p.cfg.Analysis.Metric)
	currentSet := insider.Aggregate(current, groupBy)
	baselineSet := insider.Aggregate(baseline, groupBy)

	policy := insider.AnomalyPolicy{
		Threshold:        p.cfg.Analysis.AnomalyThreshold,
		MinActivityFloor: p.cfg.Analysis.MinActivityFloor,
	}
	results := insider.Compare(currentSet, baselineSet, metric, policy)
	for _, r := range results {
		if r.IsAnomalous {
			logger.Anomaly(ctx, r.Key, r.Reason, r.CurrentTotal, r.BaselineTotal)
		}
	}
	// Count before ranking so a top-N cut never hides anomalies from the
	// journal.
	summary.AnomalyCount = insider.CountAnomalies(results)

	ranked := insider.Rank(results, insider.RankBy(p.cfg.Analysis.RankBy), p.cfg.Analysis.TopN)
	if len(ranked) > 0 {
		summary.TopKey = ranked[0].Key
	}
	logger.Stage(ctx, "analyze", "completed",
		"entities", currentSet.Len(),
		"anomalies", summary.AnomalyCount,
		"top_key", summary.TopKey)

	dataset := &report.Dataset{
		GeneratedAt:      now,
		Source:           summary.Source,
		GroupBy:          groupBy,
		Metric:           metric,
		CurrentFrom:      summary.CurrentFrom,
		CurrentTo:        summary.CurrentTo,
		BaselineFrom:     summary.BaselineFrom,
		BaselineTo:       summary.BaselineTo,
		CurrentRecords:   summary.CurrentRecords,
		BaselineRecords:  summary.BaselineRecords,
		DefaultedRecords: summary.DefaultedRecords,
		Current:          currentSet,
		Baseline:         baselineSet,
		Results:          ranked,
	}

	// Optional stages. Failures here are logged and flip the run status to
	// degraded, but the report still goes out.
	degraded := false

	if p.collab.Archive != nil && p.cfg.Archive.Enabled {
		if err := p.archiveFilings(ctx, current, baseline); err != nil {
			logger.ErrorWithErr(ctx, "Failed to archive filings", err)
			degraded = true
		}
	}

	if p.collab.Sentiment != nil && p.cfg.Sentiment.Enabled {
		dataset.Sentiment = p.collectSentiment(ctx, ranked)
	}

	if p.collab.Completer != nil {
		narrative, err := p.collab.Completer.Complete(ctx, report.NarrativePrompt(dataset))
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to generate narrative", err,
				"provider", p.collab.Completer.Provider())
			degraded = true
		} else {
			dataset.Narrative = strings.TrimSpace(narrative)
		}
	}

	logger.Stage(ctx, "report", "started")
	for _, format := range p.cfg.Report.Formats {
		path, err := p.reporter.SaveReport(dataset, report.ReportFormat(format))
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to save report", err, "format", format)
			degraded = true
			continue
		}
		summary.ReportPaths = append(summary.ReportPaths, path)
	}
	logger.Stage(ctx, "report", "completed", "paths", len(summary.ReportPaths))

	reportPath := ""
	if len(summary.ReportPaths) > 0 {
		reportPath = summary.ReportPaths[0]
	}

	if p.collab.Archive != nil && p.cfg.Archive.Enabled {
		run := &archive.Run{
			StartedAt:        wallStart.UTC(),
			FinishedAt:       time.Now().UTC(),
			Source:           summary.Source,
			CurrentRecords:   summary.CurrentRecords,
			BaselineRecords:  summary.BaselineRecords,
			DefaultedRecords: summary.DefaultedRecords,
			AnomalyCount:     summary.AnomalyCount,
			TopKey:           summary.TopKey,
			ReportPath:       reportPath,
		}
		if err := p.collab.Archive.SaveRun(ctx, run); err != nil {
			logger.ErrorWithErr(ctx, "Failed to record run", err)
			degraded = true
		}
	}

	summary.Status = "ok"
	if degraded {
		summary.Status = "degraded"
	}
	summary.Duration = time.Since(wallStart)

	if err := runlog.Append(runlog.Entry{
		Source:           summary.Source,
		Status:           summary.Status,
		TopKey:           summary.TopKey,
		ReportPath:       reportPath,
		CurrentRecords:   summary.CurrentRecords,
		BaselineRecords:  summary.BaselineRecords,
		DefaultedRecords: summary.DefaultedRecords,
		AnomalyCount:     summary.AnomalyCount,
		DurationMS:       summary.Duration.Milliseconds(),
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal run", err)
		summary.Status = "degraded"
	}

	op.End(
		"current_records", summary.CurrentRecords,
		"baseline_records", summary.BaselineRecords,
		"anomalies", summary.AnomalyCount,
		"top_key", summary.TopKey,
		"status", summary.Status)

	return summary, nil
}

// archiveFilings persists both windows in one batch. The archive dedupes, so
// overlapping fetches across polls stay idempotent.
func (p *Pipeline) archiveFilings(ctx context.Context, current, baseline []insider.FilingRecord) error {
	records := make([]insider.FilingRecord, 0, len(current)+len(baseline))
	records = append(records, current...)
	records = append(records, baseline...)

	inserted, err := p.collab.Archive.SaveFilings(ctx, records)
	if err != nil {
		return err
	}
	logger.Stage(ctx, "archive", "completed", "offered", len(records), "new", inserted)
	return nil
}

// collectSentiment looks up press coverage for the companies behind the
// ranked results, anomalous keys first so the service's per-run cap goes to
// the entities that matter. Returns sentiment keyed by the grouping key so
// the report can join it back to the results.
func (p *Pipeline) collectSentiment(ctx context.Context, ranked []insider.ComparisonResult) map[string]news.Sentiment {
	var symbols []string
	seen := make(map[string]bool)
	add := func(key string) {
		symbol := companyOf(key)
		if symbol == insider.UnknownCompany || seen[symbol] {
			return
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}
	for _, r := range ranked {
		if r.IsAnomalous {
			add(r.Key)
		}
	}
	for _, r := range ranked {
		add(r.Key)
	}
	if len(symbols) == 0 {
		return nil
	}

	sentiments := p.collab.Sentiment.ForCompanies(ctx, symbols)
	if len(sentiments) == 0 {
		return nil
	}

	out := make(map[string]news.Sentiment, len(sentiments))
	for _, r := range ranked {
		if s, ok := sentiments[companyOf(r.Key)]; ok {
			out[r.Key] = s
		}
	}
	return out
}

// companyOf strips the insider suffix from a per-individual grouping key
func companyOf(key string) string {
	if i := strings.IndexByte(key, '|'); i >= 0 {
		return key[:i]
	}
	return key
}
