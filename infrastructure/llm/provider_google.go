package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GoogleDefaultModel is the Gemini model used when none is configured.
// It matches the model identity the evaluation product ships with.
const GoogleDefaultModel = "gemini-2.5-flash"

func init() {
	RegisterProvider("google", newGoogleProvider)
}

// googleProvider implements CoreLLM over the Gemini API.
type googleProvider struct {
	baseProvider
	client *genai.Client
}

func newGoogleProvider(config ClientConfig) (CoreLLM, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	model := config.Model
	if model == "" {
		model = GoogleDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &googleProvider{
		baseProvider: baseProvider{model: model},
		client:       client,
	}, nil
}

// DoRequest sends a generation request to the Gemini API. When
// JSONOnly is set the response MIME type is pinned to application/json
// so the model replies with a bare JSON document.
func (p *googleProvider) DoRequest(ctx context.Context, prompt string, opts Options) (Completion, error) {
	finalPrompt := prompt
	if opts.System != "" {
		// Gemini has no separate system role; prepend it.
		finalPrompt = fmt.Sprintf("System: %s\n\nUser: %s", opts.System, prompt)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(finalPrompt, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, resolveModel(opts, p.GetModel()), contents, p.generationConfig(opts))
	if err != nil {
		return Completion{}, p.classify(err)
	}

	text := resp.Text()
	if text == "" {
		return Completion{}, ErrEmptyResponse
	}

	return Completion{
		Text:      text,
		TokensIn:  p.tokenCount(resp.UsageMetadata, true, finalPrompt),
		TokensOut: p.tokenCount(resp.UsageMetadata, false, text),
	}, nil
}

func (p *googleProvider) generationConfig(opts Options) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if opts.Temperature != nil {
		temp := *opts.Temperature
		if temp < 0 {
			temp = 0
		}
		if temp > 2 {
			temp = 2
		}
		config.Temperature = genai.Ptr(float32(temp))
	}
	if opts.MaxTokens > 0 {
		if opts.MaxTokens > math.MaxInt32 {
			config.MaxOutputTokens = math.MaxInt32
		} else {
			config.MaxOutputTokens = int32(opts.MaxTokens)
		}
	}
	if opts.JSONOnly {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

func (p *googleProvider) tokenCount(usage *genai.GenerateContentResponseUsageMetadata, input bool, text string) int {
	if usage != nil {
		if input && usage.PromptTokenCount > 0 {
			return int(usage.PromptTokenCount)
		}
		if !input && usage.CandidatesTokenCount > 0 {
			return int(usage.CandidatesTokenCount)
		}
	}
	return estimateTokens(text)
}

func (p *googleProvider) classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" && len(apiErr.Errors) > 0 {
			message = apiErr.Errors[0].Message
		}
		return classifyStatus("google", apiErr.Code, message, err)
	}
	return classifyTransport("google", err)
}
