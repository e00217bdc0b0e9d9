package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcdesk/deckeval/internal/domain"
	"github.com/vcdesk/deckeval/internal/scoring"
)

// fakeOracle scripts stage responses. It distinguishes stage1 from
// stage2 prompts by the embedded Stage-1 JSON marker.
type fakeOracle struct {
	mu           sync.Mutex
	stage1JSON   string
	stage2JSON   string
	stage1Err    error
	stage2Err    error
	stage1Calls  int
	stage2Calls  int
	stage1Errors int // fail this many stage1 calls before succeeding

	// block, when non-nil, stalls every Invoke until closed.
	block chan struct{}
}

func (f *fakeOracle) Invoke(_ context.Context, prompt string) (json.RawMessage, error) {
	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if strings.Contains(prompt, "STAGE 1 JSON:") {
		f.stage2Calls++
		if f.stage2Err != nil {
			return nil, f.stage2Err
		}
		return json.RawMessage(f.stage2JSON), nil
	}

	f.stage1Calls++
	if f.stage1Errors > 0 {
		f.stage1Errors--
		return nil, &domain.MalformedResponseError{Detail: "transient garbage"}
	}
	if f.stage1Err != nil {
		return nil, f.stage1Err
	}
	return json.RawMessage(f.stage1JSON), nil
}

func (f *fakeOracle) ModelID() string { return "fake-model" }

func (f *fakeOracle) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage1Calls, f.stage2Calls
}

// memCache is an in-memory ports.CacheStore.
type memCache struct {
	mu    sync.Mutex
	items map[string]*domain.EvaluationRecord
	meta  map[string]string
	saves int
}

func newMemCache() *memCache {
	return &memCache{
		items: map[string]*domain.EvaluationRecord{},
		meta:  map[string]string{},
	}
}

func (c *memCache) Load(context.Context) error { return nil }
func (c *memCache) Save(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	return nil
}

func (c *memCache) Get(fp string) (*domain.EvaluationRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.items[fp]
	return rec, ok
}

func (c *memCache) Set(fp string, rec *domain.EvaluationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[fp] = rec
}

func (c *memCache) Records() []*domain.EvaluationRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	records := make([]*domain.EvaluationRecord, 0, len(c.items))
	for _, rec := range c.items {
		records = append(records, rec)
	}
	return records
}

func (c *memCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]*domain.EvaluationRecord{}
	c.meta = map[string]string{}
}

func (c *memCache) SetMeta(k, v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meta[k] = v
}

func (c *memCache) GetMeta(k string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.meta[k]
	return v, ok
}

// fakeArtifacts records published reports.
type fakeArtifacts struct {
	mu        sync.Mutex
	published map[string]string
	err       error
}

func (f *fakeArtifacts) PublishReport(_ context.Context, name, markdown string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", "", f.err
	}
	if f.published == nil {
		f.published = map[string]string{}
	}
	f.published[name] = markdown
	return "file-" + name, "https://drive.example/" + name, nil
}

func stage1JSON(logicScore float64) string {
	return fmt.Sprintf(`{
		"company_name": "Acme",
		"one_line_summary": "Robots",
		"overall_summary": "Solid.",
		"logic_score": %g,
		"pass_gate": false,
		"item_evaluations": {
			"problem_definition": {"score": 8, "comment": "c", "feedback": "f"},
			"team": {"score": 9, "comment": "c", "feedback": "f"}
		},
		"strengths": {"team": ["experienced"]},
		"weaknesses": {"market": ["crowded"]},
		"red_flags": []
	}`, logicScore)
}

const stage2JSONOK = `{
	"stage_label": "seed",
	"industry_label": "deep-tech",
	"stage_score": 7,
	"industry_score": 6,
	"bm_score": 5,
	"axis_comments": {"stage": "fine"},
	"validation_questions": {"stage": ["q1"]}
}`

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func newTestOrchestrator(oracle *fakeOracle, cache *memCache, opts ...OrchestratorOption) *Orchestrator {
	opts = append([]OrchestratorOption{WithRetryConfig(fastRetry())}, opts...)
	o := NewOrchestrator(oracle, cache, scoring.DefaultConfig(), opts...)
	o.now = func() time.Time { return time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC) }
	return o
}

func testDoc(name string) domain.Document {
	return domain.Document{ID: "id-" + name, Name: name, Text: "pitch text for " + name}
}

func TestEvaluateGatedFlow(t *testing.T) {
	oracle := &fakeOracle{stage1JSON: stage1JSON(85), stage2JSON: stage2JSONOK}
	cache := newMemCache()
	o := newTestOrchestrator(oracle, cache)

	outcome := o.Evaluate(context.Background(), testDoc("deck.md"), false)

	require.Equal(t, domain.StatusDone, outcome.Status)
	rec := outcome.Record
	require.NotNil(t, rec)
	assert.True(t, rec.Stage1.PassGate)
	assert.True(t, rec.Stage2.Gated())

	result, ok := rec.Stage2.Result()
	require.True(t, ok)
	// Labels are canonicalized from the model's loose spelling.
	assert.Equal(t, "Seed", result.StageLabel)
	assert.Equal(t, "DeepTech", result.IndustryLabel)

	assert.NotEmpty(t, rec.ReportMarkdown)
	assert.NotEmpty(t, rec.FinalVerdict)

	s1, s2 := oracle.calls()
	assert.Equal(t, 1, s1)
	assert.Equal(t, 1, s2)

	// Record is cached under its fingerprint.
	cached, ok := cache.Get(rec.Fingerprint)
	require.True(t, ok)
	assert.Equal(t, rec, cached)
}

func TestEvaluateGateRecomputedNotTrusted(t *testing.T) {
	// Model claims pass_gate=false cannot suppress a passing score,
	// and a failing score cannot be talked past the gate.
	oracle := &fakeOracle{stage1JSON: stage1JSON(79.9), stage2JSON: stage2JSONOK}
	o := newTestOrchestrator(oracle, newMemCache())

	outcome := o.Evaluate(context.Background(), testDoc("deck.md"), false)

	require.Equal(t, domain.StatusDone, outcome.Status)
	assert.False(t, outcome.Record.Stage1.PassGate)
	assert.False(t, outcome.Record.Stage2.Gated())

	_, s2 := oracle.calls()
	assert.Zero(t, s2, "ungated documents must not reach stage 2")
}

func TestEvaluateIdempotent(t *testing.T) {
	oracle := &fakeOracle{stage1JSON: stage1JSON(85), stage2JSON: stage2JSONOK}
	cache := newMemCache()
	o := newTestOrchestrator(oracle, cache)

	first := o.Evaluate(context.Background(), testDoc("deck.md"), false)
	require.Equal(t, domain.StatusDone, first.Status)

	second := o.Evaluate(context.Background(), testDoc("deck.md"), false)
	assert.Equal(t, domain.StatusSkipped, second.Status)
	assert.Equal(t, first.Record, second.Record)

	s1, s2 := oracle.calls()
	assert.Equal(t, 1, s1, "cache hit must not call the oracle")
	assert.Equal(t, 1, s2)
}

func TestEvaluateForceRerunReplacesRecord(t *testing.T) {
	oracle := &fakeOracle{stage1JSON: stage1JSON(85), stage2JSON: stage2JSONOK}
	cache := newMemCache()
	o := newTestOrchestrator(oracle, cache)

	first := o.Evaluate(context.Background(), testDoc("deck.md"), false)
	require.Equal(t, domain.StatusDone, first.Status)

	forced := o.Evaluate(context.Background(), testDoc("deck.md"), true)
	require.Equal(t, domain.StatusDone, forced.Status)

	s1, _ := oracle.calls()
	assert.Equal(t, 2, s1)

	cached, ok := cache.Get(first.Record.Fingerprint)
	require.True(t, ok)
	assert.Equal(t, forced.Record, cached)
}

func TestEvaluateRetriesMalformedStage1(t *testing.T) {
	oracle := &fakeOracle{stage1JSON: stage1JSON(85), stage2JSON: stage2JSONOK, stage1Errors: 2}
	o := newTestOrchestrator(oracle, newMemCache())

	outcome := o.Evaluate(context.Background(), testDoc("deck.md"), false)

	require.Equal(t, domain.StatusDone, outcome.Status)
	s1, _ := oracle.calls()
	assert.Equal(t, 3, s1)
}

func TestEvaluateFailureClassification(t *testing.T) {
	t.Run("malformed after retries exhausted", func(t *testing.T) {
		oracle := &fakeOracle{stage1JSON: stage1JSON(85), stage1Errors: 99}
		o := newTestOrchestrator(oracle, newMemCache())

		outcome := o.Evaluate(context.Background(), testDoc("deck.md"), false)
		require.Equal(t, domain.StatusFailed, outcome.Status)
		require.NotNil(t, outcome.Failure)
		assert.Equal(t, domain.FailureMalformedResponse, outcome.Failure.Kind)
		assert.Equal(t, "deck.md", outcome.Failure.DocumentName)
	})

	t.Run("upstream", func(t *testing.T) {
		oracle := &fakeOracle{stage1Err: errors.New("provider exploded")}
		o := newTestOrchestrator(oracle, newMemCache())

		outcome := o.Evaluate(context.Background(), testDoc("deck.md"), false)
		require.Equal(t, domain.StatusFailed, outcome.Status)
		assert.Equal(t, domain.FailureUpstream, outcome.Failure.Kind)
	})

	t.Run("persistence on publish failure", func(t *testing.T) {
		oracle := &fakeOracle{stage1JSON: stage1JSON(85), stage2JSON: stage2JSONOK}
		cache := newMemCache()
		artifacts := &fakeArtifacts{err: errors.New("drive quota")}
		o := newTestOrchestrator(oracle, cache, WithArtifactStore(artifacts))

		outcome := o.Evaluate(context.Background(), testDoc("deck.md"), false)
		require.Equal(t, domain.StatusFailed, outcome.Status)
		assert.Equal(t, domain.FailurePersistence, outcome.Failure.Kind)

		// A failed publish must not poison the cache.
		assert.Empty(t, cache.Records())
	})
}

func TestEvaluatePublishesReport(t *testing.T) {
	oracle := &fakeOracle{stage1JSON: stage1JSON(85), stage2JSON: stage2JSONOK}
	artifacts := &fakeArtifacts{}
	o := newTestOrchestrator(oracle, newMemCache(), WithArtifactStore(artifacts))

	outcome := o.Evaluate(context.Background(), testDoc("acme_deck.pdf"), false)

	require.Equal(t, domain.StatusDone, outcome.Status)
	assert.Equal(t, "file-acme_deck_evaluation.md", outcome.Record.ReportFileID)
	assert.Contains(t, outcome.Record.ReportURL, "acme_deck_evaluation.md")
	assert.Contains(t, artifacts.published["acme_deck_evaluation.md"], "# Evaluation Report")
}

func TestEvaluateFailureMessageTruncated(t *testing.T) {
	oracle := &fakeOracle{stage1Err: errors.New(strings.Repeat("x", 1000))}
	o := newTestOrchestrator(oracle, newMemCache())

	outcome := o.Evaluate(context.Background(), testDoc("deck.md"), false)
	require.Equal(t, domain.StatusFailed, outcome.Status)
	assert.LessOrEqual(t, len(outcome.Failure.Message), 300)
}

func TestEvaluateSingleflightCollapsesDuplicates(t *testing.T) {
	block := make(chan struct{})
	oracle := &fakeOracle{stage1JSON: stage1JSON(79), stage2JSON: stage2JSONOK, block: block}
	o := newTestOrchestrator(oracle, newMemCache())

	doc := testDoc("deck.md")
	var wg sync.WaitGroup
	outcomes := make([]domain.Outcome, 8)
	for i := range outcomes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = o.Evaluate(context.Background(), doc, false)
		}()
	}

	// Let every caller reach the in-flight evaluation, then unblock.
	time.Sleep(50 * time.Millisecond)
	close(block)
	wg.Wait()

	for _, outcome := range outcomes {
		assert.NotEqual(t, domain.StatusFailed, outcome.Status)
	}

	s1, _ := oracle.calls()
	assert.Equal(t, 1, s1, "concurrent identical documents must share one oracle pass")
}

func TestFingerprintCoversModelIdentity(t *testing.T) {
	a := domain.Fingerprint("text", Stage1Prompt().Text, Stage2Prompt().Text, "model-a")
	b := domain.Fingerprint("text", Stage1Prompt().Text, Stage2Prompt().Text, "model-b")
	assert.NotEqual(t, a, b)
}
