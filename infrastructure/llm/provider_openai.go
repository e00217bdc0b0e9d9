package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIDefaultModel is used when no model is configured.
const OpenAIDefaultModel = "gpt-4o-mini"

func init() {
	RegisterProvider("openai", newOpenAIProvider)
}

// openAIProvider implements CoreLLM over the OpenAI chat API.
type openAIProvider struct {
	baseProvider
	client *openai.Client
}

func newOpenAIProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = OpenAIDefaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &openAIProvider{
		baseProvider: baseProvider{model: model},
		client:       openai.NewClientWithConfig(clientConfig),
	}, nil
}

// DoRequest sends a chat completion request. JSONOnly maps onto the
// json_object response format.
func (p *openAIProvider) DoRequest(ctx context.Context, prompt string, opts Options) (Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	req := openai.ChatCompletionRequest{
		Model:    resolveModel(opts, p.GetModel()),
		Messages: messages,
	}
	if opts.Temperature != nil {
		req.Temperature = float32(*opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.JSONOnly {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Completion{}, p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	completion := Completion{
		Text:      content,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
	}
	if completion.TokensIn == 0 {
		completion.TokensIn = estimateTokens(prompt)
	}
	if completion.TokensOut == 0 {
		completion.TokensOut = estimateTokens(content)
	}
	return completion, nil
}

func (p *openAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		message := ""
		if apiErr.Message != "" {
			message = apiErr.Message
		}
		return classifyStatus("openai", apiErr.HTTPStatusCode, message, err)
	}
	return classifyTransport("openai", err)
}
