// Package openrouter implements llm.Completer against OpenRouter's
// OpenAI-compatible chat completions API.
package openrouter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/emilwagman/Ambient-AI/pkg/llm"
	"github.com/emilwagman/Ambient-AI/pkg/logger"
	"github.com/emilwagman/Ambient-AI/pkg/metrics"
)

// DefaultBaseURL is OpenRouter's API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Config holds the client settings.
type Config struct {
	APIKey  string
	BaseURL string

	// Models maps each tier to a model id such as "anthropic/claude-haiku-4-5".
	Models map[llm.Tier]string

	// Timeout bounds a single call. Zero means no client-side timeout.
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is an llm.Completer backed by openai-go.
type Client struct {
	client  openai.Client
	models  map[llm.Tier]string
	timeout time.Duration
	logger  *slog.Logger
}

// New builds a Client. An API key and a model for every tier are required.
func New(c Config) (*Client, error) {
	if c.APIKey == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	for _, tier := range []llm.Tier{llm.TierChat, llm.TierSynthesis, llm.TierThinking} {
		if c.Models[tier] == "" {
			return nil, fmt.Errorf("openrouter: no model configured for tier %q", tier)
		}
	}

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(c.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if c.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(c.HTTPClient))
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		client:  openai.NewClient(opts...),
		models:  c.Models,
		timeout: c.Timeout,
		logger:  log,
	}, nil
}

// Complete sends req to the model mapped to req.Tier.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	model, ok := c.models[req.Tier]
	if !ok {
		return "", fmt.Errorf("%w: unknown tier %q", llm.ErrModelUnavailable, req.Tier)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: convertMessages(req),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	tier := string(req.Tier)
	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		err = classify(err)
		result := "error"
		if errors.Is(err, llm.ErrRateLimited) {
			result = "rate_limited"
		}
		metrics.RecordModelCall(tier, result, time.Since(start))
		return "", err
	}

	if len(resp.Choices) == 0 {
		metrics.RecordModelCall(tier, "error", time.Since(start))
		return "", fmt.Errorf("%w: empty response from %s", llm.ErrModelUnavailable, model)
	}

	metrics.RecordModelCall(tier, "ok", time.Since(start))
	metrics.RecordTokens(tier, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	c.logger.Debug("model call complete",
		"tier", tier,
		"model", model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	return resp.Choices[0].Message.Content, nil
}

func convertMessages(req llm.Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case llm.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", llm.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %w", llm.ErrModelUnavailable, err)
}
