package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// AnthropicDefaultModel is used when no model is configured.
	AnthropicDefaultModel = "claude-3-5-haiku-latest"

	// anthropicDefaultMaxTokens applies when the caller does not set a
	// token budget; the Messages API requires one.
	anthropicDefaultMaxTokens = 4096
)

func init() {
	RegisterProvider("anthropic", newAnthropicProvider)
}

// anthropicProvider implements CoreLLM over the Anthropic Messages API.
type anthropicProvider struct {
	baseProvider
	client anthropic.Client
}

func newAnthropicProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = AnthropicDefaultModel
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(config.BaseURL))
	}

	return &anthropicProvider{
		baseProvider: baseProvider{model: model},
		client:       anthropic.NewClient(clientOpts...),
	}, nil
}

// DoRequest sends a Messages API request. Anthropic has no JSON response
// mode; JSONOnly is enforced by the caller's prompt and response parsing.
func (p *anthropicProvider) DoRequest(ctx context.Context, prompt string, opts Options) (Completion, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(resolveModel(opts, p.GetModel())),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return Completion{}, p.classify(err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}
	content := sb.String()
	if content == "" {
		return Completion{}, ErrEmptyResponse
	}

	return Completion{
		Text:      content,
		TokensIn:  int(message.Usage.InputTokens),
		TokensOut: int(message.Usage.OutputTokens),
	}, nil
}

func (p *anthropicProvider) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return classifyStatus("anthropic", apiErr.StatusCode, apiErr.Error(), err)
	}
	return classifyTransport("anthropic", err)
}
