// Package llm abstracts the model providers (Google Gemini, OpenAI,
// Anthropic) behind one client interface and layers rate limiting,
// metrics, and tracing on top through a middleware chain. Providers
// register themselves at init time, so switching providers is a
// configuration change.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/vcdesk/deckeval/internal/ports"
)

// Options is the normalized request configuration shared by all
// providers. Fields a provider cannot express are ignored.
type Options struct {
	// Model overrides the client's default model for this request.
	Model string

	// MaxTokens bounds the generated output length.
	MaxTokens int

	// Temperature controls sampling randomness; nil means provider
	// default. Evaluation runs pin it to 0 for reproducibility.
	Temperature *float64

	// JSONOnly requests a JSON-object-only reply from providers that
	// support a structured response mode.
	JSONOnly bool

	// System carries an optional system instruction.
	System string
}

// Completion is a provider response with token accounting.
type Completion struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// CoreLLM is the minimal provider contract. Middleware wraps any
// conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt and returns the completion.
	DoRequest(ctx context.Context, prompt string, opts Options) (Completion, error)

	// GetModel returns the configured model name.
	GetModel() string

	// SetModel switches the model for subsequent requests.
	SetModel(model string)
}

// Middleware decorates a CoreLLM with additional behavior.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig configures a provider-backed client.
type ClientConfig struct {
	// APIKey authenticates against the provider.
	APIKey string

	// Model selects the model; empty uses the provider default.
	Model string

	// BaseURL overrides the provider endpoint when non-empty.
	BaseURL string

	// Timeout bounds individual requests; zero means none.
	Timeout time.Duration

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// ProviderFactory builds a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProvider makes a provider available under the given name.
// Called from provider init functions.
func RegisterProvider(name string, factory ProviderFactory) {
	providerFactories[name] = factory
}

// Client implements ports.LLMClient over a middleware-wrapped provider.
type Client struct {
	core CoreLLM
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient builds a client for the named provider and assembles its
// middleware chain.
func NewClient(provider string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("provider %s: API key is required", provider)
	}

	factory, ok := providerFactories[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", provider, err)
	}

	// Apply in reverse so the first middleware ends up outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core}, nil
}

// Complete sends a prompt and returns the generated text.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	completion, err := c.core.DoRequest(ctx, prompt, parseOptions(options))
	if err != nil {
		return "", err
	}
	return completion.Text, nil
}

// EstimateTokens approximates the token count of text using the
// common ~4 characters per token heuristic.
func (c *Client) EstimateTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

// GetModel returns the underlying provider's model identifier.
func (c *Client) GetModel() string { return c.core.GetModel() }

// parseOptions lifts the loosely typed options map used at the ports
// boundary into the normalized Options struct. Unknown keys and
// mistyped values fall back to defaults.
func parseOptions(opts map[string]any) Options {
	var options Options
	if opts == nil {
		return options
	}

	if v, ok := opts["model"].(string); ok && v != "" {
		options.Model = v
	}
	if v, ok := opts["max_tokens"].(int); ok && v > 0 {
		options.MaxTokens = v
	}
	if v, ok := opts["temperature"].(float64); ok && v >= 0 && v <= 2 {
		options.Temperature = &v
	}
	if v, ok := opts["response_format"].(string); ok && v == "json" {
		options.JSONOnly = true
	}
	if v, ok := opts["system"].(string); ok {
		options.System = v
	}
	return options
}
