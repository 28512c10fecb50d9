package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI-compatible completion client. BaseURL
// may point at any compatible endpoint (a local server included).
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type openAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a Client backed by an OpenAI-compatible API.
func NewOpenAIClient(cfg OpenAIConfig) Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &openAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (c *openAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return Response{}, categorize(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("llm: empty completion response")
	}
	return Response{Text: resp.Choices[0].Message.Content}, nil
}

// categorize maps provider errors onto the package's failure categories.
func categorize(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrAuth, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimit, err)
		}
	}
	return fmt.Errorf("llm: completion failed: %w", err)
}
