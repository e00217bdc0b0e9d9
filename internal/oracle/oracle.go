// Package oracle wraps an LLM client into a JSON-returning oracle with
// a global admission gate. The gate bounds in-flight model calls
// independently of how many documents the batch runner processes in
// parallel, so raising batch concurrency never raises provider load.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/vcdesk/deckeval/internal/domain"
	"github.com/vcdesk/deckeval/internal/ports"
)

// DefaultMaxInFlight is the admission gate capacity: at most this many
// model calls run concurrently across the whole process.
const DefaultMaxInFlight = 2

// Oracle turns free-form model completions into validated JSON object
// payloads. It performs no retries; callers decide retry policy.
type Oracle struct {
	client ports.LLMClient
	gate   *semaphore.Weighted
}

var _ ports.ModelOracle = (*Oracle)(nil)

// New builds an Oracle over the given client. maxInFlight <= 0 uses
// DefaultMaxInFlight.
func New(client ports.LLMClient, maxInFlight int64) *Oracle {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Oracle{
		client: client,
		gate:   semaphore.NewWeighted(maxInFlight),
	}
}

// Invoke sends the prompt and returns the response as a raw JSON
// object. The call blocks while the admission gate is full. Responses
// that do not contain a single JSON object yield a
// MalformedResponseError; provider failures pass through unchanged.
func (o *Oracle) Invoke(ctx context.Context, prompt string) (json.RawMessage, error) {
	if err := o.gate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring oracle slot: %w", err)
	}
	defer o.gate.Release(1)

	text, err := o.client.Complete(ctx, prompt, map[string]any{
		"temperature":     0.0,
		"response_format": "json",
	})
	if err != nil {
		return nil, err
	}

	payload := extractJSON(text)
	if payload == "" {
		return nil, &domain.MalformedResponseError{
			Detail: "response contains no JSON object",
		}
	}
	if !json.Valid([]byte(payload)) {
		return nil, &domain.MalformedResponseError{
			Detail: "extracted payload is not valid JSON",
		}
	}
	return json.RawMessage(payload), nil
}

// ModelID returns the identifier of the underlying model.
func (o *Oracle) ModelID() string { return o.client.GetModel() }
