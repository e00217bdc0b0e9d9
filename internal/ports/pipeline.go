package ports

import (
	"context"
	"encoding/json"

	"github.com/vcdesk/deckeval/internal/domain"
)

// ModelOracle is the single abstracted call contract with the model:
// one prompt in, one JSON object out. Implementations enforce a global
// admission ceiling on in-flight calls and classify failures as
// malformed-response or upstream; they do not retry. Retry policy
// belongs to the orchestrator.
type ModelOracle interface {
	// Invoke sends the prompt and returns the raw JSON object emitted
	// by the model, with code fences and surrounding prose stripped.
	// Returns *domain.MalformedResponseError when no single JSON
	// object can be recovered from the reply.
	Invoke(ctx context.Context, prompt string) (json.RawMessage, error)

	// ModelID returns the model identity for fingerprinting.
	ModelID() string
}

// CacheStore is the content-addressed persistent map from fingerprint
// to evaluation record. The unit of durability is the whole index:
// Load reads the last persisted blob (an unreadable or missing blob
// degrades to an empty index) and Save atomically rewrites it.
type CacheStore interface {
	// Load reconstructs the in-memory index from the backing blob.
	Load(ctx context.Context) error

	// Save persists the whole index atomically. A crash during Save
	// must never corrupt the previously saved blob.
	Save(ctx context.Context) error

	// Get returns the record for a fingerprint, if present.
	Get(fingerprint string) (*domain.EvaluationRecord, bool)

	// Set stores a record under its fingerprint, replacing any
	// existing record wholesale.
	Set(fingerprint string, record *domain.EvaluationRecord)

	// Records returns all cached records for export.
	Records() []*domain.EvaluationRecord

	// Clear discards every record and the metadata.
	Clear()

	// SetMeta and GetMeta expose free-form index metadata.
	SetMeta(key, value string)
	GetMeta(key string) (string, bool)
}

// ArtifactStore publishes rendered reports to external storage.
// Publishing is idempotent: re-publishing the same name replaces the
// existing artifact instead of accumulating copies.
type ArtifactStore interface {
	// PublishReport uploads the Markdown report under the given name
	// and returns the stored artifact's identifier and shareable URL.
	PublishReport(ctx context.Context, name, markdown string) (fileID, url string, err error)
}

// RowSink appends tabular export rows to an external spreadsheet log.
type RowSink interface {
	// EnsureHeader writes the header row if the sheet is empty.
	EnsureHeader(ctx context.Context, header []string) error

	// AppendRows appends rows after the current last row.
	AppendRows(ctx context.Context, rows [][]string) error
}
