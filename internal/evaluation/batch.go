package evaluation

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vcdesk/deckeval/internal/domain"
	"github.com/vcdesk/deckeval/internal/ports"
)

// DefaultWorkers is the default batch parallelism. The oracle's
// admission gate bounds model load separately, so this only controls
// how many documents are in flight through the pipeline.
const DefaultWorkers = 4

// BatchResult aggregates the per-document outcomes of one run.
type BatchResult struct {
	// Outcomes holds one entry per requested document, in request order.
	Outcomes []domain.Outcome

	// Done, Skipped, and Failed count outcomes by status.
	Done    int
	Skipped int
	Failed  int
}

// Failures returns the failures of all failed outcomes.
func (r *BatchResult) Failures() []*domain.Failure {
	var failures []*domain.Failure
	for _, outcome := range r.Outcomes {
		if outcome.Failure != nil {
			failures = append(failures, outcome.Failure)
		}
	}
	return failures
}

// Runner executes batches of documents with bounded parallelism. One
// document's failure never aborts the rest of the batch.
type Runner struct {
	orchestrator *Orchestrator
	cache        ports.CacheStore
	workers      int
	logger       *slog.Logger

	processed atomic.Int64
	total     atomic.Int64
}

// NewRunner builds a batch runner. workers <= 0 uses DefaultWorkers.
func NewRunner(orchestrator *Orchestrator, cache ports.CacheStore, workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		orchestrator: orchestrator,
		cache:        cache,
		workers:      workers,
		logger:       logger,
	}
}

// Progress reports processed and total document counts for the batch
// currently running. The processed count only ever grows during a run.
func (r *Runner) Progress() (processed, total int64) {
	return r.processed.Load(), r.total.Load()
}

// Run evaluates every document in the request and persists the cache
// once at the end. Context cancellation stops admission of new
// documents; already-running evaluations finish or fail on their own.
func (r *Runner) Run(ctx context.Context, req domain.BatchRequest) (*BatchResult, error) {
	r.processed.Store(0)
	r.total.Store(int64(len(req.Documents)))

	outcomes := make([]domain.Outcome, len(req.Documents))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, doc := range req.Documents {
		g.Go(func() error {
			outcome := r.orchestrator.Evaluate(ctx, doc, req.ForceRerun)

			mu.Lock()
			outcomes[i] = outcome
			mu.Unlock()
			r.processed.Add(1)

			// Failures are captured in the outcome, not returned,
			// so sibling documents keep running.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &BatchResult{Outcomes: outcomes}
	for _, outcome := range outcomes {
		switch outcome.Status {
		case domain.StatusDone:
			result.Done++
		case domain.StatusSkipped:
			result.Skipped++
		case domain.StatusFailed:
			result.Failed++
		}
	}

	r.cache.SetMeta("last_run", time.Now().UTC().Format(time.RFC3339))
	if err := r.cache.Save(ctx); err != nil {
		return result, err
	}

	r.logger.Info("batch finished",
		"total", len(req.Documents),
		"done", result.Done,
		"skipped", result.Skipped,
		"failed", result.Failed)
	return result, nil
}
