// Command deckeval evaluates a directory of investment pitch documents
// through the two-stage scoring pipeline and reports per-document
// outcomes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vcdesk/deckeval/internal/application"
	"github.com/vcdesk/deckeval/internal/domain"
	"github.com/vcdesk/deckeval/internal/ingest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "deckeval:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to YAML config (optional)")
	docsDir := flag.String("docs", ".", "directory containing .md and .pdf pitch documents")
	force := flag.Bool("force", false, "re-evaluate documents even when cached")
	clearCache := flag.Bool("clear-cache", false, "discard the cache before running")
	csvOut := flag.String("csv", "", "write all cached records to this CSV file after the run")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := application.DefaultConfig()
	if *configPath != "" {
		loaded, err := application.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := application.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if *clearCache {
		app.Cache.Clear()
		logger.Info("cache cleared")
	}

	docs, err := ingest.LoadDir(*docsDir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		logger.Info("no documents found", "dir", *docsDir)
		return nil
	}

	result, err := app.RunBatch(ctx, domain.BatchRequest{
		Documents:  docs,
		ForceRerun: *force,
	})
	if err != nil {
		return err
	}

	for _, outcome := range result.Outcomes {
		line := fmt.Sprintf("%-40s %s", outcome.DocumentName, outcome.Status)
		if outcome.Record != nil {
			line += fmt.Sprintf("  %s (c/n/p %d/%d/%d)",
				outcome.Record.FinalVerdict,
				outcome.Record.Scores.Critical,
				outcome.Record.Scores.Neutral,
				outcome.Record.Scores.Positive)
		}
		fmt.Println(line)
	}

	if failures := result.Failures(); len(failures) > 0 {
		fmt.Println()
		fmt.Println("failures:")
		for _, f := range failures {
			fmt.Println(" ", f.Error())
		}
	}

	fmt.Printf("\n%d done, %d skipped, %d failed\n", result.Done, result.Skipped, result.Failed)

	if *csvOut != "" {
		if err := app.ExportCSV(*csvOut); err != nil {
			return err
		}
		logger.Info("csv written", "path", *csvOut)
	}
	return nil
}
