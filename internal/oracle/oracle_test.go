package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcdesk/deckeval/internal/domain"
)

// stubClient is a ports.LLMClient returning canned completions.
type stubClient struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	onCall   func(ctx context.Context) (string, error)
}

func (c *stubClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	c.mu.Lock()
	c.calls++
	fn := c.onCall
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return c.response, c.err
}

func (c *stubClient) EstimateTokens(text string) (int, error) { return len(text) / 4, nil }
func (c *stubClient) GetModel() string                        { return "stub-model" }

func TestOracleInvoke(t *testing.T) {
	tests := []struct {
		name          string
		response      string
		wantPayload   string
		wantMalformed bool
	}{
		{
			name:        "bare object",
			response:    `{"logic_score": 85}`,
			wantPayload: `{"logic_score": 85}`,
		},
		{
			name:        "json fence",
			response:    "Here you go:\n```json\n{\"logic_score\": 85}\n```\nDone.",
			wantPayload: `{"logic_score": 85}`,
		},
		{
			name:        "generic fence",
			response:    "```\n{\"a\": 1}\n```",
			wantPayload: `{"a": 1}`,
		},
		{
			name:        "object inside prose",
			response:    `The result is {"a": {"b": "with } brace"}} as requested.`,
			wantPayload: `{"a": {"b": "with } brace"}}`,
		},
		{
			name:          "no object at all",
			response:      "I cannot evaluate this document.",
			wantMalformed: true,
		},
		{
			name:          "unterminated object",
			response:      `{"a": 1`,
			wantMalformed: true,
		},
		{
			name:          "invalid json in braces",
			response:      `{not json}`,
			wantMalformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New(&stubClient{response: tt.response}, 0)
			payload, err := o.Invoke(context.Background(), "prompt")

			if tt.wantMalformed {
				var malformed *domain.MalformedResponseError
				require.ErrorAs(t, err, &malformed)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.wantPayload, string(payload))
		})
	}
}

func TestOracleInvokePassesThroughClientError(t *testing.T) {
	upstream := errors.New("provider unavailable")
	o := New(&stubClient{err: upstream}, 0)

	_, err := o.Invoke(context.Background(), "prompt")
	require.ErrorIs(t, err, upstream)

	var malformed *domain.MalformedResponseError
	assert.False(t, errors.As(err, &malformed))
}

func TestOracleAdmissionGate(t *testing.T) {
	var inFlight, peak atomic.Int64
	release := make(chan struct{})

	client := &stubClient{onCall: func(ctx context.Context) (string, error) {
		cur := inFlight.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		<-release
		inFlight.Add(-1)
		return `{"ok": true}`, nil
	}}

	o := New(client, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.Invoke(context.Background(), "prompt")
			assert.NoError(t, err)
		}()
	}

	// Let the first admitted calls start, then open the floodgate.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(2), "admission gate must cap concurrent calls")
	assert.Equal(t, 6, client.calls)
}

func TestOracleInvokeRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	blocked := New(&stubClient{response: "{}"}, 1)
	require.NoError(t, blocked.gate.Acquire(context.Background(), 1))
	defer blocked.gate.Release(1)

	_, err := blocked.Invoke(ctx, "prompt")
	require.ErrorIs(t, err, context.Canceled)
}

func TestOracleModelID(t *testing.T) {
	o := New(&stubClient{}, 0)
	assert.Equal(t, "stub-model", o.ModelID())
}

func TestExtractJSONEmptyAndWhitespace(t *testing.T) {
	assert.Empty(t, extractJSON(""))
	assert.Empty(t, extractJSON("   \n\t  "))
}

func TestInvokeReturnsRawMessage(t *testing.T) {
	o := New(&stubClient{response: `{"nested": {"k": [1, 2, 3]}}`}, 0)
	payload, err := o.Invoke(context.Background(), "p")
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Contains(t, decoded, "nested")
}
