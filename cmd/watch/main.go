package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insider-radar/internal/archive"
	"insider-radar/internal/insider/datasource"
	"insider-radar/internal/llm"
	"insider-radar/internal/logger"
	"insider-radar/internal/news"
	"insider-radar/internal/pipeline"
	"insider-radar/internal/runlog"
	"insider-radar/internal/store"
	"insider-radar/internal/trace"

	"github.com/joho/godotenv"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config %s not found, using defaults", *configPath)
			cfg = store.DefaultConfig()
		} else {
			log.Fatal(err)
		}
	}

	must(logger.Init())
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = runlog.CompressOlder(cfg.Watch.LogRetentionDays)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	source, err := datasource.CreateSource(cfg)
	must(err)
	if cfg.DataSource == "MOCK" {
		log.Println(">> MOCK data source")
	}

	collab := pipeline.Collaborators{
		Completer: llm.NewCompleter(ctx, cfg),
	}
	if cfg.Archive.Enabled {
		arch, err := archive.Open(cfg.Archive.DBPath)
		must(err)
		defer arch.Close()
		collab.Archive = arch
	}
	if cfg.Sentiment.Enabled {
		collab.Sentiment = news.NewService(news.ConfigFromStore(cfg))
	}

	p := pipeline.New(cfg, source, collab)

	runOnce := func() {
		summary, err := p.Run(ctx)
		if err != nil {
			log.Printf("run error: %v", err)
			return
		}
		b, _ := json.Marshal(summary)
		fmt.Println(string(b))
		_ = runlog.CompressOlder(cfg.Watch.LogRetentionDays)
	}

	tick := time.NewTicker(time.Duration(cfg.Watch.PollMinutes) * time.Minute)
	defer tick.Stop()

	log.Printf("Watch started, polling every %dm.", cfg.Watch.PollMinutes)
	runOnce()

	for {
		select {
		case <-tick.C:
			runOnce()
		case <-sigc:
			log.Println("Shutting down...")
			_ = trace.Shutdown(context.Background())
			_ = logger.Shutdown(context.Background())
			return
		case <-ctx.Done():
			return
		}
	}
}
