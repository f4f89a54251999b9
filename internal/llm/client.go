package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/genai"

	"informeclaro/internal/config"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Client sends anonymized report text to a chat model and returns its analysis.
type Client struct {
	model  model.BaseChatModel
	prompt string
}

// New builds the chat model for cfg.Provider (gemini, openai or claude).
func New(ctx context.Context, cfg config.LLMConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}

	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		client, cerr := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:     cfg.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		})
		if cerr != nil {
			return nil, fmt.Errorf("create gemini client: %w", cerr)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	case "claude":
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURL,
			MaxTokens: 4096,
		})
	default:
		return nil, fmt.Errorf("invalid llm provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Provider, err)
	}
	return NewWithModel(chatModel, cfg.Prompt), nil
}

// NewWithModel wraps an already constructed chat model.
func NewWithModel(m model.BaseChatModel, prompt string) *Client {
	if prompt == "" {
		prompt = config.DefaultPrompt
	}
	return &Client{model: m, prompt: prompt}
}

type result struct {
	msg *schema.Message
	err error
}

// Analyze sends text to the model and waits for the full answer. The model
// call runs on its own goroutine so that a provider which ignores ctx still
// cannot hold the caller past ctx's deadline.
func (c *Client) Analyze(ctx context.Context, text string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(c.prompt),
		schema.UserMessage(text),
	}

	done := make(chan result, 1)
	go func() {
		msg, err := c.model.Generate(ctx, messages)
		done <- result{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("llm call aborted: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("llm generate: %w", r.err)
		}
		if r.msg == nil || strings.TrimSpace(r.msg.Content) == "" {
			return "", ErrEmptyResponse
		}
		return r.msg.Content, nil
	}
}
