package llm

import (
	"sync"
)

// baseProvider holds the mutable model name shared by all providers.
// Safe for concurrent use.
type baseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the configured model name.
func (b *baseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model for subsequent requests.
func (b *baseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// estimateTokens is the shared fallback when a provider response
// carries no usage metadata: roughly 4 characters per token.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// resolveModel picks the per-request model override or the provider
// default.
func resolveModel(opts Options, fallback string) string {
	if opts.Model != "" {
		return opts.Model
	}
	return fallback
}
