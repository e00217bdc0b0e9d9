// Package domain contains the core types for pitch-deck evaluation:
// documents, prompts, stage results, evaluation records, and the
// failure taxonomy shared by the orchestrator and batch runner.
package domain

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is an immutable evaluation input. It is created once when a
// deck is scanned or uploaded and never mutated afterwards.
type Document struct {
	// ID identifies the document, typically a filename or a remote
	// file identifier.
	ID string `json:"id"`

	// Name is the human-readable document name shown in reports.
	Name string `json:"name"`

	// Text is the full deck text in Markdown.
	Text string `json:"text"`

	// ModifiedAt records the source's last-modified time when known.
	ModifiedAt time.Time `json:"modified_at,omitzero"`
}

// Prompt is a versioned instruction text for one evaluation stage.
// Its identity is the content hash; editing the text yields a new
// identity, which transparently invalidates cache fingerprints.
type Prompt struct {
	// Name labels the prompt slot, e.g. "stage1" or "stage2".
	Name string

	// Text is the full instruction text sent to the model.
	Text string
}

// Hash returns the hex-encoded SHA-256 digest of the prompt text.
func (p Prompt) Hash() string {
	sum := sha256.Sum256([]byte(p.Text))
	return hex.EncodeToString(sum[:])
}

// md5Hex returns the hex-encoded MD5 of text. Used only as a content
// fingerprint component, never for security purposes.
func md5Hex(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
