package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"insider-radar/internal/archive"
	"insider-radar/internal/insider"
	"insider-radar/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	runs := flag.Int("runs", 10, "number of recent runs to list")
	replay := flag.Bool("replay", false, "re-run the comparison over archived filings")
	asJSON := flag.Bool("json", false, "emit results as JSON")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = store.DefaultConfig()
		} else {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	arch, err := archive.Open(cfg.Archive.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open archive %s: %v\n", cfg.Archive.DBPath, err)
		os.Exit(1)
	}
	defer arch.Close()

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║          Insider Radar History - Archived Activity           ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx := context.Background()

	if *replay {
		replayArchive(ctx, cfg, arch, *asJSON)
		return
	}

	listRuns(ctx, arch, *runs, *asJSON)
}

func listRuns(ctx context.Context, arch *archive.Archive, limit int, asJSON bool) {
	runs, err := arch.RecentRuns(ctx, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load runs: %v\n", err)
		os.Exit(1)
	}

	if asJSON {
		b, _ := json.MarshalIndent(runs, "", "  ")
		fmt.Println(string(b))
		return
	}

	if len(runs) == 0 {
		fmt.Println("⚠️  No recorded runs yet. Run the radar with archive.enabled: true first.")
		return
	}

	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                         RECENT RUNS")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	for _, run := range runs {
		marker := "📊"
		if run.AnomalyCount > 0 {
			marker = "⚠️"
		}
		fmt.Printf("%s %s  %s: %d current / %d baseline, %d anomalies",
			marker, run.FinishedAt.Format("2006-01-02 15:04"), run.Source,
			run.CurrentRecords, run.BaselineRecords, run.AnomalyCount)
		if run.TopKey != "" {
			fmt.Printf(", top %s", run.TopKey)
		}
		fmt.Println()
		if run.ReportPath != "" {
			fmt.Printf("   └─ %s\n", run.ReportPath)
		}
	}
}

// replayArchive reruns the window comparison over everything the archive
// holds, anchored at the newest archived filing so the output does not
// depend on when the replay is invoked.
func replayArchive(ctx context.Context, cfg *store.Config, arch *archive.Archive, asJSON bool) {
	records, err := arch.FilingsBetween(ctx, time.Time{}, time.Now().UTC().Add(24*time.Hour))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load filings: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("⚠️  The archive holds no filings yet.")
		return
	}

	// Archived dates are day-granular, so the anchor sits one day past the
	// newest filing to keep that whole day inside the current window.
	anchor := records[0].FilingDate
	for _, r := range records {
		if r.FilingDate.After(anchor) {
			anchor = r.FilingDate
		}
	}
	anchor = anchor.Add(24 * time.Hour)

	currentFrom := anchor.Add(-time.Duration(cfg.Windows.CurrentHours) * time.Hour)
	baselineFrom := currentFrom.Add(-time.Duration(cfg.Windows.BaselineDays) * 24 * time.Hour)

	var current, baseline []insider.FilingRecord
	for _, r := range records {
		switch {
		case !r.FilingDate.Before(currentFrom):
			current = append(current, r)
		case !r.FilingDate.Before(baselineFrom):
			baseline = append(baseline, r)
		}
	}

	groupBy := insider.GroupBy(cfg.Analysis.GroupBy)
	metric := insider.Metric(cfg.Analysis.Metric)
	policy := insider.AnomalyPolicy{
		Threshold:        cfg.Analysis.AnomalyThreshold,
		MinActivityFloor: cfg.Analysis.MinActivityFloor,
	}

	currentSet := insider.Aggregate(current, groupBy)
	baselineSet := insider.Aggregate(baseline, groupBy)
	results := insider.Compare(currentSet, baselineSet, metric, policy)
	ranked := insider.Rank(results, insider.RankBy(cfg.Analysis.RankBy), cfg.Analysis.TopN)

	if asJSON {
		b, _ := json.MarshalIndent(ranked, "", "  ")
		fmt.Println(string(b))
		return
	}

	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                        ARCHIVE REPLAY")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("Current Window:    %s to %s (%d filings)\n",
		currentFrom.Format("2006-01-02"), anchor.Format("2006-01-02"), len(current))
	fmt.Printf("Baseline Window:   %s to %s (%d filings)\n",
		baselineFrom.Format("2006-01-02"), currentFrom.Format("2006-01-02"), len(baseline))
	fmt.Printf("Anomalies:         %d\n", insider.CountAnomalies(results))
	fmt.Println()

	if len(ranked) == 0 {
		fmt.Println("⚠️  No activity in either window.")
		return
	}

	for i, res := range ranked {
		marker := "📊"
		if res.IsAnomalous {
			marker = "⚠️"
		}
		fmt.Printf("%s #%d %s: current %s, baseline %s (%s)\n",
			marker, i+1, res.Key,
			formatTotal(metric, res.CurrentTotal),
			formatTotal(metric, res.BaselineTotal),
			res.PercentLabel())
		if res.Reason != "" {
			fmt.Printf("     %s\n", res.Reason)
		}
	}
}

func formatTotal(metric insider.Metric, v float64) string {
	if metric == insider.MetricValue {
		return fmt.Sprintf("$%.2f", v)
	}
	return fmt.Sprintf("%.0f shares", v)
}
