// Package telegram is a minimal Telegram Bot API client: sending messages,
// managing the webhook and long polling for updates.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emilwagman/Ambient-AI/pkg/logger"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Config configures a Client.
type Config struct {
	Token string

	// BaseURL overrides DefaultBaseURL.
	BaseURL string

	// HTTPClient defaults to a client with a 75s timeout, long enough for a
	// 60s long poll.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client calls the Bot API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client.
func New(c Config) (*Client, error) {
	if c.Token == "" {
		return nil, errors.New("telegram: bot token is required")
	}

	baseURL := strings.TrimSuffix(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 75 * time.Second}
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		token:      c.Token,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log,
	}, nil
}

// SendMessage sends text to a chat. Text must fit the platform limit; use
// outbound.Send for longer text.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	params := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	var sent Message
	return c.call(ctx, "sendMessage", params, &sent)
}

// Deliver implements outbound.Deliverer.
func (c *Client) Deliver(ctx context.Context, recipientID int64, text string) error {
	return c.SendMessage(ctx, recipientID, text)
}

// SetWebhook points the bot's webhook at url.
func (c *Client) SetWebhook(ctx context.Context, webhookURL string) error {
	var ok bool
	return c.call(ctx, "setWebhook", map[string]any{"url": webhookURL}, &ok)
}

// DeleteWebhook removes the bot's webhook so getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	var ok bool
	return c.call(ctx, "deleteWebhook", map[string]any{}, &ok)
}

// GetUpdates long polls for updates with id >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// Poll long polls until ctx is done, calling handle for every update in
// order. Failed polls are logged and retried after a pause.
func (c *Client) Poll(ctx context.Context, timeout time.Duration, handle func(context.Context, Update)) error {
	const retryPause = 3 * time.Second

	var offset int64
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := c.GetUpdates(ctx, offset, timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("polling for updates failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryPause):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			handle(ctx, u)
		}
	}
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("telegram: %s: encoding params: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, c.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, c.redact(err))
	}
	defer resp.Body.Close()

	envelope := apiResponse[json.RawMessage]{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("telegram: %s: decoding response (status %d): %w", method, resp.StatusCode, err)
	}
	if !envelope.OK {
		code := envelope.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return &APIError{Method: method, Code: code, Description: envelope.Description}
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram: %s: decoding result: %w", method, err)
		}
	}
	return nil
}

func (c *Client) methodURL(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}

// redact strips the bot token from transport errors, which embed the
// request URL.
func (c *Client) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = strings.ReplaceAll(uerr.URL, c.token, "<redacted>")
	}
	return err
}
