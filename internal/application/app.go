package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/time/rate"

	"github.com/vcdesk/deckeval/infrastructure/llm"
	"github.com/vcdesk/deckeval/infrastructure/metrics"
	"github.com/vcdesk/deckeval/infrastructure/storage"
	"github.com/vcdesk/deckeval/internal/cache"
	"github.com/vcdesk/deckeval/internal/domain"
	"github.com/vcdesk/deckeval/internal/evaluation"
	"github.com/vcdesk/deckeval/internal/export"
	"github.com/vcdesk/deckeval/internal/oracle"
	"github.com/vcdesk/deckeval/internal/ports"
)

// App wires the pipeline components for one process.
type App struct {
	Config Config
	Runner *evaluation.Runner
	Cache  ports.CacheStore

	rowSink ports.RowSink
	logger  *slog.Logger
}

// New assembles the application. The cache is loaded, the provider
// client built with its middleware chain, and exporters attached when
// configured.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	apiKey, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}

	collector := metrics.NewPrometheusMetrics()
	middleware := []llm.Middleware{
		llm.TracingMiddleware("deckeval"),
		llm.MetricsMiddleware(collector),
	}
	if cfg.RequestsPerSecond > 0 {
		middleware = append(middleware, llm.RateLimitMiddleware(rate.Limit(cfg.RequestsPerSecond), 1))
	}

	client, err := llm.NewClient(cfg.Provider, llm.ClientConfig{
		APIKey:     apiKey,
		Model:      cfg.Model,
		Timeout:    cfg.RequestTimeout,
		Middleware: middleware,
	})
	if err != nil {
		return nil, fmt.Errorf("building %s client: %w", cfg.Provider, err)
	}

	store := cache.NewFileStore(cfg.CachePath)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}

	modelOracle := oracle.New(client, cfg.OracleConcurrency)

	orchestratorOpts := []evaluation.OrchestratorOption{
		evaluation.WithLogger(logger),
	}

	var credentials []byte
	if cfg.CredentialsFile != "" {
		credentials, err = os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading credentials: %w", err)
		}
	}

	if cfg.DriveFolderID != "" {
		drive, err := storage.NewDriveStore(ctx, cfg.DriveFolderID, credentials)
		if err != nil {
			return nil, err
		}
		orchestratorOpts = append(orchestratorOpts, evaluation.WithArtifactStore(drive))
	}

	app := &App{
		Config: cfg,
		Cache:  store,
		logger: logger,
	}

	if cfg.SpreadsheetID != "" {
		sink, err := storage.NewSheetSink(ctx, cfg.SpreadsheetID, cfg.SheetName, credentials)
		if err != nil {
			return nil, err
		}
		app.rowSink = sink
	}

	orchestrator := evaluation.NewOrchestrator(modelOracle, store, cfg.Scoring, orchestratorOpts...)
	app.Runner = evaluation.NewRunner(orchestrator, store, cfg.Workers, logger)
	return app, nil
}

// RunBatch evaluates the documents and, when a sheet is configured,
// appends one row per newly completed evaluation.
func (a *App) RunBatch(ctx context.Context, req domain.BatchRequest) (*evaluation.BatchResult, error) {
	result, err := a.Runner.Run(ctx, req)
	if err != nil {
		return result, err
	}

	if a.rowSink != nil {
		if err := a.appendRows(ctx, result); err != nil {
			a.logger.Warn("sheet export failed", "error", err)
		}
	}
	return result, nil
}

func (a *App) appendRows(ctx context.Context, result *evaluation.BatchResult) error {
	var rows [][]string
	for _, outcome := range result.Outcomes {
		if outcome.Status == domain.StatusDone && outcome.Record != nil {
			rows = append(rows, export.BuildRow(outcome.Record))
		}
	}
	if len(rows) == 0 {
		return nil
	}

	if err := a.rowSink.EnsureHeader(ctx, export.SheetColumns); err != nil {
		return err
	}
	return a.rowSink.AppendRows(ctx, rows)
}

// ExportCSV writes every cached record to path.
func (a *App) ExportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv: %w", err)
	}
	defer f.Close()

	if err := export.WriteCSV(f, a.Cache.Records()); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
