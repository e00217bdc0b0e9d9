package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FailureKind classifies why a document's pipeline failed. The kinds
// mirror the external surfaces a pipeline touches: the model oracle
// and the persistence layer. Missing or malformed individual fields
// inside an otherwise valid response are not failures; consumers
// substitute typed defaults for those.
type FailureKind string

const (
	// FailureMalformedResponse means the oracle returned a payload
	// that could not be parsed as a single JSON object.
	FailureMalformedResponse FailureKind = "malformed_response"

	// FailureUpstream covers transport, auth, and rate-limit errors
	// from the model service.
	FailureUpstream FailureKind = "upstream"

	// FailurePersistence covers cache or artifact write failures.
	// Partial state for the document is discarded, never cached.
	FailurePersistence FailureKind = "persistence"
)

// failureMessageLimit bounds the stored error message so a single
// verbose upstream error cannot bloat batch reports or the cache.
const failureMessageLimit = 300

// Failure is the structured, user-facing form of a per-document
// error. Raw errors never cross the batch boundary; they are reduced
// to a kind, a bounded single-line message, and the document identity.
type Failure struct {
	Kind         FailureKind `json:"kind"`
	Message      string      `json:"message"`
	DocumentName string      `json:"document_name"`
}

// NewFailure builds a Failure from an error, flattening newlines and
// truncating the message to the bounded length.
func NewFailure(kind FailureKind, documentName string, err error) *Failure {
	msg := ""
	if err != nil {
		msg = strings.ReplaceAll(err.Error(), "\n", " ")
	}
	if len(msg) > failureMessageLimit {
		cut := failureMessageLimit
		// Back off to a rune boundary so the cut never leaves a split
		// multibyte character behind.
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return &Failure{Kind: kind, Message: msg, DocumentName: documentName}
}

// Error renders the failure in the batch report line format.
func (f *Failure) Error() string {
	return fmt.Sprintf("%s | %s | %s", f.DocumentName, f.Kind, f.Message)
}

// MalformedResponseError reports that the model's reply was not a
// single JSON object even after stripping common wrappers.
type MalformedResponseError struct {
	// Detail describes what was wrong with the payload.
	Detail string

	// Err is the underlying decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("malformed model response: %s", e.Detail)
}

// Unwrap returns the underlying decode error.
func (e *MalformedResponseError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write to the cache blob or the
// artifact store.
type PersistenceError struct {
	// Op names the failed operation, e.g. "publish report".
	Op string

	// Err is the underlying storage error.
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying storage error.
func (e *PersistenceError) Unwrap() error { return e.Err }
