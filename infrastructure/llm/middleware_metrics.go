package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/vcdesk/deckeval/internal/ports"
)

// metricsLLM records latency, request counts, and token usage for
// every completion request.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports request metrics to
// the given collector. A nil collector disables collection.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{
			next:      next,
			collector: collector,
		}
	}
}

// DoRequest executes the request and records its outcome. Status labels
// distinguish timeouts, retryable provider errors, and hard failures.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts Options) (Completion, error) {
	start := time.Now()
	completion, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"provider": m.providerLabel(),
		"model":    m.next.GetModel(),
		"status":   "success",
	}
	if err != nil {
		labels["status"] = statusLabel(ctx, err)
	}

	if m.collector != nil {
		m.collector.RecordLatency("llm_request", time.Since(start), labels)
		m.collector.RecordCounter("llm_requests_total", 1, labels)

		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("llm_tokens_total", float64(completion.TokensIn), labels)

			labels["token_type"] = "output"
			m.collector.RecordCounter("llm_tokens_total", float64(completion.TokensOut), labels)
		}
	}

	return completion, err
}

func statusLabel(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "timeout"
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) && provErr.IsRetryable() {
		return "retryable_error"
	}
	return "error"
}

func (m *metricsLLM) providerLabel() string {
	model := m.next.GetModel()
	switch {
	case strings.Contains(model, "gpt"):
		return "openai"
	case strings.Contains(model, "claude"):
		return "anthropic"
	case strings.Contains(model, "gemini"):
		return "google"
	}
	return "unknown"
}

func (m *metricsLLM) GetModel() string  { return m.next.GetModel() }
func (m *metricsLLM) SetModel(s string) { m.next.SetModel(s) }
