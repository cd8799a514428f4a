package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"insider-radar/internal/archive"
	"insider-radar/internal/insider/datasource"
	"insider-radar/internal/llm"
	"insider-radar/internal/logger"
	"insider-radar/internal/news"
	"insider-radar/internal/pipeline"
	"insider-radar/internal/store"
	"insider-radar/internal/trace"

	"github.com/joho/godotenv"
)

func main() {
	// Command-line flags
	configPath := flag.String("config", "config.yaml", "path to config file")
	format := flag.String("format", "", "override report formats: text, json, csv, or markdown")
	outputFile := flag.String("output", "", "copy the report to this file (optional)")
	mock := flag.Bool("mock", false, "force the mock data source")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("Config %s not found, using defaults\n", *configPath)
			cfg = store.DefaultConfig()
		} else {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if *mock {
		cfg.DataSource = "MOCK"
	}
	if *format != "" {
		cfg.Report.Formats = []string{*format}
	}

	// Initialize logger
	if err := logger.Init(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	fmt.Printf("🔎 Insider Radar: %s source, last %dh vs prior %dd\n",
		cfg.DataSource, cfg.Windows.CurrentHours, cfg.Windows.BaselineDays)
	fmt.Println("─────────────────────────────────────────────────────────────────────────────")

	// Initialize data source based on configuration
	source, err := datasource.CreateSource(cfg)
	if err != nil {
		fmt.Printf("Error creating data source: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	collab := pipeline.Collaborators{
		Completer: llm.NewCompleter(ctx, cfg),
	}
	if cfg.Archive.Enabled {
		arch, err := archive.Open(cfg.Archive.DBPath)
		if err != nil {
			fmt.Printf("Error opening archive: %v\n", err)
			os.Exit(1)
		}
		defer arch.Close()
		collab.Archive = arch
	}
	if cfg.Sentiment.Enabled {
		collab.Sentiment = news.NewService(news.ConfigFromStore(cfg))
	}

	// Run analysis
	summary, err := pipeline.New(cfg, source, collab).Run(ctx)
	if err != nil {
		fmt.Printf("Error running analysis: %v\n", err)
		os.Exit(1)
	}

	// Echo the text report to the console when one was produced
	for _, path := range summary.ReportPaths {
		if strings.HasSuffix(path, ".txt") {
			if content, err := os.ReadFile(path); err == nil {
				fmt.Println(string(content))
			}
			break
		}
	}

	// Save to file if requested
	if *outputFile != "" && len(summary.ReportPaths) > 0 {
		content, err := os.ReadFile(summary.ReportPaths[0])
		if err == nil {
			err = os.WriteFile(*outputFile, content, 0644)
		}
		if err != nil {
			fmt.Printf("Error saving report to file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✅ Report saved to: %s\n", *outputFile)
	}
	for _, path := range summary.ReportPaths {
		fmt.Printf("✅ Report auto-saved to: %s\n", path)
	}

	// Summary
	fmt.Println("\n─────────────────────────────────────────────────────────────────────────────")
	fmt.Printf("Analysis complete (%s) in %s\n", summary.Status, summary.Duration.Round(time.Millisecond))
	fmt.Printf("Filings: %d current / %d baseline (%d defaulted)\n",
		summary.CurrentRecords, summary.BaselineRecords, summary.DefaultedRecords)
	fmt.Printf("Anomalies Detected: %d\n", summary.AnomalyCount)
	if summary.TopKey != "" {
		fmt.Printf("Largest Mover: %s\n", summary.TopKey)
	}

	// Exit with appropriate code
	if summary.AnomalyCount > 0 {
		fmt.Printf("\n⚠️  %d entities show anomalous activity. Review the findings carefully.\n", summary.AnomalyCount)
		os.Exit(2) // Exit code 2 indicates anomalies were found
	}

	os.Exit(0)
}
