package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcdesk/deckeval/internal/domain"
	"github.com/vcdesk/deckeval/internal/scoring"
)

func testScoringConfig() scoring.Config { return scoring.DefaultConfig() }

// flakyOracle fails stage1 for documents whose name appears in failDocs.
type flakyOracle struct {
	mu       sync.Mutex
	failDocs map[string]bool
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (f *flakyOracle) Invoke(_ context.Context, prompt string) (json.RawMessage, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		old := f.peak.Load()
		if cur <= old || f.peak.CompareAndSwap(old, cur) {
			break
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for name := range f.failDocs {
		if strings.Contains(prompt, "pitch text for "+name) {
			return nil, fmt.Errorf("upstream failure for %s", name)
		}
	}
	if strings.Contains(prompt, "STAGE 1 JSON:") {
		return json.RawMessage(stage2JSONOK), nil
	}
	return json.RawMessage(stage1JSON(85)), nil
}

func (f *flakyOracle) ModelID() string { return "fake-model" }

func docs(names ...string) []domain.Document {
	out := make([]domain.Document, len(names))
	for i, name := range names {
		out[i] = testDoc(name)
	}
	return out
}

func TestRunnerIsolatesFailures(t *testing.T) {
	oracle := &flakyOracle{failDocs: map[string]bool{"b.md": true, "d.md": true}}
	cache := newMemCache()
	o := NewOrchestrator(oracle, cache, testScoringConfig(), WithRetryConfig(RetryConfig{MaxAttempts: 1}))
	runner := NewRunner(o, cache, 2, nil)

	result, err := runner.Run(context.Background(), domain.BatchRequest{
		Documents: docs("a.md", "b.md", "c.md", "d.md", "e.md"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Done)
	assert.Equal(t, 2, result.Failed)
	assert.Zero(t, result.Skipped)
	require.Len(t, result.Outcomes, 5)

	// Outcomes stay in request order.
	assert.Equal(t, "a.md", result.Outcomes[0].DocumentName)
	assert.Equal(t, domain.StatusFailed, result.Outcomes[1].Status)
	assert.Equal(t, domain.FailureUpstream, result.Outcomes[1].Failure.Kind)
	assert.Equal(t, domain.StatusDone, result.Outcomes[2].Status)

	failures := result.Failures()
	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.Contains(t, []string{"b.md", "d.md"}, f.DocumentName)
	}

	// The cache is persisted once per batch, stamped with the run time.
	assert.Equal(t, 1, cache.saves)
	_, ok := cache.GetMeta("last_run")
	assert.True(t, ok)
}

func TestRunnerSecondRunSkipsCached(t *testing.T) {
	oracle := &flakyOracle{}
	cache := newMemCache()
	o := NewOrchestrator(oracle, cache, testScoringConfig())
	runner := NewRunner(o, cache, 0, nil)

	req := domain.BatchRequest{Documents: docs("a.md", "b.md")}

	first, err := runner.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Done)

	second, err := runner.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Skipped)
	assert.Zero(t, second.Done)
}

func TestRunnerForceRerun(t *testing.T) {
	oracle := &flakyOracle{}
	cache := newMemCache()
	o := NewOrchestrator(oracle, cache, testScoringConfig())
	runner := NewRunner(o, cache, 0, nil)

	_, err := runner.Run(context.Background(), domain.BatchRequest{Documents: docs("a.md")})
	require.NoError(t, err)

	result, err := runner.Run(context.Background(), domain.BatchRequest{
		Documents:  docs("a.md"),
		ForceRerun: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Done)
	assert.Zero(t, result.Skipped)
}

func TestRunnerProgress(t *testing.T) {
	oracle := &flakyOracle{}
	cache := newMemCache()
	o := NewOrchestrator(oracle, cache, testScoringConfig())
	runner := NewRunner(o, cache, 2, nil)

	_, err := runner.Run(context.Background(), domain.BatchRequest{Documents: docs("a.md", "b.md", "c.md")})
	require.NoError(t, err)

	processed, total := runner.Progress()
	assert.Equal(t, int64(3), processed)
	assert.Equal(t, int64(3), total)
}

func TestRunnerBoundsParallelism(t *testing.T) {
	oracle := &flakyOracle{}
	cache := newMemCache()
	o := NewOrchestrator(oracle, cache, testScoringConfig())
	runner := NewRunner(o, cache, 2, nil)

	_, err := runner.Run(context.Background(), domain.BatchRequest{
		Documents: docs("a.md", "b.md", "c.md", "d.md", "e.md", "f.md"),
	})
	require.NoError(t, err)

	// With two workers and one oracle call in flight per document at a
	// time, the oracle never sees more than two concurrent calls.
	assert.LessOrEqual(t, oracle.peak.Load(), int64(2))
}

func TestRunnerEmptyBatch(t *testing.T) {
	cache := newMemCache()
	o := NewOrchestrator(&flakyOracle{}, cache, testScoringConfig())
	runner := NewRunner(o, cache, 0, nil)

	result, err := runner.Run(context.Background(), domain.BatchRequest{})
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 1, cache.saves)
}
