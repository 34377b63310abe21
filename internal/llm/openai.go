package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"triage/internal/config"
)

// Client is the OpenAI-compatible Generator implementation.
type Client struct {
	api   openai.Client
	model string
}

// NewClient builds a chat-completions client from the runtime config.
func NewClient(cfg config.Config) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:   openai.NewClient(opts...),
		model: cfg.Model,
	}
}

// Generate sends a system instruction plus user prompt and returns the raw
// completion text. The caller is responsible for decoding; model output may
// or may not conform to the requested schema.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", &GenerationError{Op: "chat", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Op: "chat", Err: fmt.Errorf("empty choice list")}
	}
	return resp.Choices[0].Message.Content, nil
}
