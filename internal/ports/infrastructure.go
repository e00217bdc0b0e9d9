// Package ports defines the interfaces between the evaluation core
// and its collaborators: the LLM service, persistent storage, artifact
// publishing, and observability. The core depends only on these
// contracts; infrastructure packages provide the implementations.
package ports

import (
	"context"
	"time"
)

// LLMClient is the transport-facing contract for a large language
// model provider. Implementations handle authentication, request
// formatting, and response parsing; cross-cutting concerns such as
// rate limiting are layered on via middleware.
type LLMClient interface {
	// Complete sends a prompt and returns the generated text.
	// The options map carries provider-tunable settings:
	//   - "temperature": float64
	//   - "max_tokens": int
	//   - "response_format": "json" to request a JSON-only reply
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens approximates the token count of text for cost
	// accounting before a request is made.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier used by this client.
	// The identifier participates in cache fingerprints.
	GetModel() string
}

// MetricsCollector records operational metrics. Implementations
// integrate with Prometheus or equivalent; a no-op implementation is
// acceptable wherever observability is not wired.
type MetricsCollector interface {
	// RecordLatency records the duration of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter, e.g. cache hits or oracle calls.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge, e.g. batch progress.
	RecordGauge(metric string, value float64, labels map[string]string)
}
