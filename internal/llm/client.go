// Package llm is a thin provider abstraction over the Anthropic and OpenAI
// SDKs for single-turn text completion. The pipeline never retries a failed
// call; callers decide whether a failure degrades or propagates.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/openai/openai-go"
	ooption "github.com/openai/openai-go/option"
	oresponses "github.com/openai/openai-go/responses"
	oshared "github.com/openai/openai-go/shared"
)

const defaultMaxOutputTokens = 4096

type CompleteRequest struct {
	Model  string
	System string
	Prompt string

	// MaxTokens caps the output token budget; <=0 falls back to the default.
	MaxTokens int64

	// Temperature is optional; nil uses the provider default.
	Temperature *float64
}

// Client executes a single completion call against one provider.
type Client interface {
	Complete(ctx context.Context, req CompleteRequest) (string, error)
}

type anthropicClient struct {
	client anthropic.Client
}

func (c *anthropicClient) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	if c == nil {
		return "", errors.New("nil client")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return "", errors.New("missing model")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxOutputTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	if c == nil {
		return "", errors.New("nil client")
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		return "", errors.New("missing model")
	}

	params := oresponses.ResponseNewParams{
		Model:           oshared.ResponsesModel(model),
		MaxOutputTokens: openai.Int(defaultMaxOutputTokens),
		Input:           oresponses.ResponseNewParamsInputUnion{OfString: openai.String(req.Prompt)},
	}
	if req.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if system := strings.TrimSpace(req.System); system != "" {
		params.Instructions = openai.String(system)
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range resp.Output {
		if strings.TrimSpace(item.Type) != "message" {
			continue
		}
		msg := item.AsMessage()
		for _, part := range msg.Content {
			if strings.TrimSpace(part.Type) != "output_text" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(strings.TrimSpace(part.Text))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("empty completion")
	}
	return text, nil
}

// New constructs a client for the given provider type. baseURL is optional
// except for "openai_compatible".
func New(providerType, apiKey, baseURL string) (Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("missing api key")
	}
	switch strings.TrimSpace(providerType) {
	case "anthropic":
		opts := []aoption.RequestOption{aoption.WithAPIKey(apiKey)}
		if strings.TrimSpace(baseURL) != "" {
			opts = append(opts, aoption.WithBaseURL(strings.TrimSpace(baseURL)))
		}
		return &anthropicClient{client: anthropic.NewClient(opts...)}, nil
	case "openai", "openai_compatible":
		opts := []ooption.RequestOption{ooption.WithAPIKey(apiKey)}
		if strings.TrimSpace(baseURL) != "" {
			opts = append(opts, ooption.WithBaseURL(strings.TrimSpace(baseURL)))
		}
		return &openAIClient{client: openai.NewClient(opts...)}, nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", providerType)
	}
}
