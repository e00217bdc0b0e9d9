package domain

import (
	"time"
)

// PerspectiveScores are the three integer views over one evaluation,
// differing by how generously the same underlying evidence is read.
// Each value is clamped to [0, cap] by the scoring engine; the cap is
// strictly below 100 so no deck ever reads as a sure thing.
type PerspectiveScores struct {
	Critical int `json:"critical"`
	Neutral  int `json:"neutral"`
	Positive int `json:"positive"`
}

// Recommendations carries one categorical call per perspective.
type Recommendations struct {
	Critical string `json:"critical"`
	Neutral  string `json:"neutral"`
	Positive string `json:"positive"`
}

// EvaluationRecord is the durable unit of work: everything derived
// from one (document, prompts, model) combination. Records are built
// once by the orchestrator and replaced wholesale on a forced re-run,
// never patched in place.
type EvaluationRecord struct {
	// Fingerprint is the content-addressed cache key; at most one
	// record exists per fingerprint.
	Fingerprint string `json:"fingerprint"`

	// DocumentID and DocumentName identify the evaluated deck.
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`

	// CreatedAt is the record creation time.
	CreatedAt time.Time `json:"created_at"`

	// Stage1 is the absolute-stage output; Stage2 is the tagged
	// relative-stage outcome (present only when the gate passed).
	Stage1 Stage1Result  `json:"stage1"`
	Stage2 Stage2Outcome `json:"stage2"`

	// Derived scoring views.
	Scores          PerspectiveScores `json:"scores"`
	Recommendations Recommendations   `json:"recommendations"`
	FinalVerdict    string            `json:"final_verdict"`

	// ReportMarkdown is the rendered report for this record.
	ReportMarkdown string `json:"report_markdown"`

	// Published artifact coordinates, set when a report was uploaded.
	ReportFileID string `json:"report_file_id,omitempty"`
	ReportURL    string `json:"report_url,omitempty"`
}

// Status is the terminal state of one document within a batch.
type Status string

const (
	// StatusSkipped means a cache hit satisfied the request.
	StatusSkipped Status = "skipped"

	// StatusDone means a fresh evaluation completed and was cached.
	StatusDone Status = "done"

	// StatusFailed means the document's pipeline surfaced a failure.
	StatusFailed Status = "failed"
)

// Outcome is the per-document result reported by the batch runner.
// Exactly one of Record or Failure is set, matching Status.
type Outcome struct {
	DocumentName string            `json:"document_name"`
	Status       Status            `json:"status"`
	Record       *EvaluationRecord `json:"record,omitempty"`
	Failure      *Failure          `json:"failure,omitempty"`
}

// BatchRequest is the explicit contract between the presentation
// shell and the pipeline: which documents to evaluate and whether to
// bypass the cache. The pipeline holds no session state of its own.
type BatchRequest struct {
	Documents  []Document
	ForceRerun bool
}
