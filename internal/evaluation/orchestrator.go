// Package evaluation runs the two-stage evaluation pipeline: an
// absolute logic gate, a conditional fit stage, deterministic score
// blending, and idempotent publication of the resulting record.
package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vcdesk/deckeval/internal/domain"
	"github.com/vcdesk/deckeval/internal/export"
	"github.com/vcdesk/deckeval/internal/ports"
	"github.com/vcdesk/deckeval/internal/scoring"
)

// Orchestrator evaluates one document end to end. It is safe for
// concurrent use; concurrent calls for the same fingerprint collapse
// into a single oracle pass.
type Orchestrator struct {
	oracle    ports.ModelOracle
	cache     ports.CacheStore
	artifacts ports.ArtifactStore
	cfg       scoring.Config
	retry     RetryConfig
	logger    *slog.Logger

	group singleflight.Group

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithArtifactStore enables report publishing. Without it records are
// cached with the rendered Markdown but nothing is uploaded.
func WithArtifactStore(store ports.ArtifactStore) OrchestratorOption {
	return func(o *Orchestrator) { o.artifacts = store }
}

// WithRetryConfig overrides the per-stage retry policy.
func WithRetryConfig(cfg RetryConfig) OrchestratorOption {
	return func(o *Orchestrator) { o.retry = cfg }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator builds an orchestrator over the given oracle and
// cache. The scoring config must already be validated.
func NewOrchestrator(oracle ports.ModelOracle, cache ports.CacheStore, cfg scoring.Config, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		oracle: oracle,
		cache:  cache,
		cfg:    cfg,
		retry:  DefaultRetryConfig(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate runs the pipeline for one document and always returns an
// Outcome: skipped on a cache hit, done on success, failed with a
// structured failure otherwise. Errors never escape; they are reduced
// to the Outcome's Failure.
func (o *Orchestrator) Evaluate(ctx context.Context, doc domain.Document, force bool) domain.Outcome {
	fingerprint := domain.Fingerprint(doc.Text, Stage1Prompt().Text, Stage2Prompt().Text, o.oracle.ModelID())

	if !force {
		if rec, ok := o.cache.Get(fingerprint); ok {
			o.logger.Debug("cache hit", "document", doc.Name, "fingerprint", fingerprint)
			return domain.Outcome{
				DocumentName: doc.Name,
				Status:       domain.StatusSkipped,
				Record:       rec,
			}
		}
	}

	result, err, _ := o.group.Do(fingerprint, func() (any, error) {
		return o.evaluate(ctx, doc, fingerprint)
	})
	if err != nil {
		failure := o.classifyFailure(doc, err)
		o.logger.Warn("evaluation failed",
			"document", doc.Name, "kind", failure.Kind, "error", err)
		return domain.Outcome{
			DocumentName: doc.Name,
			Status:       domain.StatusFailed,
			Failure:      failure,
		}
	}

	rec := result.(*domain.EvaluationRecord)
	return domain.Outcome{
		DocumentName: doc.Name,
		Status:       domain.StatusDone,
		Record:       rec,
	}
}

func (o *Orchestrator) evaluate(ctx context.Context, doc domain.Document, fingerprint string) (*domain.EvaluationRecord, error) {
	stage1, err := withRetry(ctx, o.retry, "stage1", func(ctx context.Context) (domain.Stage1Result, error) {
		return o.runStage1(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	// The gate is recomputed locally; the model's own pass_gate claim
	// is not trusted.
	stage1.PassGate = stage1.LogicScore.Float() >= o.cfg.GateThreshold

	stage2 := domain.UngatedOutcome()
	if stage1.PassGate {
		result, err := withRetry(ctx, o.retry, "stage2", func(ctx context.Context) (domain.Stage2Result, error) {
			return o.runStage2(ctx, doc, stage1)
		})
		if err != nil {
			return nil, err
		}
		stage2 = domain.GatedOutcome(result)
	} else {
		o.logger.Info("gate not passed, skipping fit stage",
			"document", doc.Name, "logic_score", stage1.LogicScore.Float())
	}

	scores := scoring.PerspectiveScores(o.cfg, stage1, stage2)
	rec := &domain.EvaluationRecord{
		Fingerprint:     fingerprint,
		DocumentID:      doc.ID,
		DocumentName:    doc.Name,
		CreatedAt:       o.now().UTC(),
		Stage1:          stage1,
		Stage2:          stage2,
		Scores:          scores,
		Recommendations: scoring.DeriveRecommendations(o.cfg, scores),
		FinalVerdict:    scoring.FinalVerdict(o.cfg, stage1, scores),
	}
	rec.ReportMarkdown = export.RenderReport(rec)

	if o.artifacts != nil {
		fileID, url, err := o.artifacts.PublishReport(ctx, export.ReportFileName(doc.Name), rec.ReportMarkdown)
		if err != nil {
			// Publish failures keep the record out of the cache so the
			// next run re-publishes instead of silently losing the
			// artifact.
			return nil, &domain.PersistenceError{Op: "publish report", Err: err}
		}
		rec.ReportFileID = fileID
		rec.ReportURL = url
	}

	o.cache.Set(fingerprint, rec)
	o.logger.Info("evaluation complete",
		"document", doc.Name,
		"gated", stage2.Gated(),
		"verdict", rec.FinalVerdict,
		"neutral_score", scores.Neutral)
	return rec, nil
}

func (o *Orchestrator) runStage1(ctx context.Context, doc domain.Document) (domain.Stage1Result, error) {
	payload, err := o.oracle.Invoke(ctx, BuildStage1Prompt(doc.Text))
	if err != nil {
		return domain.Stage1Result{}, err
	}
	var result domain.Stage1Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.Stage1Result{}, &domain.MalformedResponseError{
			Detail: "stage1 payload does not match the expected shape",
			Err:    err,
		}
	}
	return result, nil
}

func (o *Orchestrator) runStage2(ctx context.Context, doc domain.Document, stage1 domain.Stage1Result) (domain.Stage2Result, error) {
	prompt, err := BuildStage2Prompt(doc.Text, stage1)
	if err != nil {
		return domain.Stage2Result{}, err
	}
	payload, err := o.oracle.Invoke(ctx, prompt)
	if err != nil {
		return domain.Stage2Result{}, err
	}
	var result domain.Stage2Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return domain.Stage2Result{}, &domain.MalformedResponseError{
			Detail: "stage2 payload does not match the expected shape",
			Err:    err,
		}
	}
	result.StageLabel = scoring.CanonicalStageLabel(result.StageLabel)
	result.IndustryLabel = scoring.CanonicalIndustryLabel(result.IndustryLabel)
	return result, nil
}

// classifyFailure maps an evaluation error into the failure taxonomy.
func (o *Orchestrator) classifyFailure(doc domain.Document, err error) *domain.Failure {
	kind := domain.FailureUpstream

	var malformed *domain.MalformedResponseError
	var persistence *domain.PersistenceError
	switch {
	case errors.As(err, &malformed):
		kind = domain.FailureMalformedResponse
	case errors.As(err, &persistence):
		kind = domain.FailurePersistence
	}

	return domain.NewFailure(kind, doc.Name, err)
}
