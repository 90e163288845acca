package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/internal/xjson"
	"resty.dev/v3"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Polling defaults, matching what the Bot API recommends for long polling.
const (
	DefaultPollTimeout = 30 * time.Second
	DefaultBatchLimit  = 100

	// pollGrace is added to the long-poll timeout before the request itself
	// is abandoned.
	pollGrace = 10 * time.Second
)

// Client calls the Bot API for a single bot token.
type Client struct {
	http        *resty.Client
	token       string
	logger      *slog.Logger
	pollTimeout time.Duration
	batchLimit  int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another Bot API server (tests, local API server).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.http.SetBaseURL(strings.TrimRight(u, "/"))
	}
}

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		base := c.http.BaseURL()
		c.http = resty.NewWithClient(hc).SetBaseURL(base)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithPollTimeout sets the long-poll timeout used by Receive.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.pollTimeout = d
		}
	}
}

// WithBatchLimit caps how many updates a single Receive returns.
func WithBatchLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchLimit = n
		}
	}
}

// New creates a client for token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		http:        resty.New().SetBaseURL(DefaultBaseURL),
		token:       token,
		logger:      logging.NewNop(),
		pollTimeout: DefaultPollTimeout,
		batchLimit:  DefaultBatchLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// call posts params as JSON to method and decodes the result into out (when non-nil).
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")
	if params != nil {
		body, err := xjson.Marshal(params)
		if err != nil {
			return fmt.Errorf("telegram %s: encode request: %w", method, err)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	start := time.Now()
	resp, err := req.Post("/bot" + c.token + "/" + method)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	c.logger.Debug("telegram call",
		"method", method,
		"status", resp.StatusCode(),
		"duration", time.Since(start),
	)

	var env envelope
	if err := xjson.Unmarshal(resp.Bytes(), &env); err != nil {
		return &APIError{Method: method, Code: resp.StatusCode(), Description: "malformed response"}
	}
	if !env.OK || resp.IsError() {
		apiErr := &APIError{Method: method, Code: env.ErrorCode, Description: env.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode()
		}
		if env.Parameters != nil && env.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(env.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := xjson.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("telegram %s: decode result: %w", method, err)
	}
	return nil
}

// GetMe returns the bot account behind the token.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, "getMe", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SendMessage sends text to chatID. markup may be nil, an
// *InlineKeyboardMarkup or a *ReplyKeyboardMarkup.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup any) (*Message, error) {
	var m Message
	if err := c.call(ctx, "sendMessage", messageParams(chatID, text, markup), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SendPhoto sends a photo by URL with an optional caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) (*Message, error) {
	var m Message
	if err := c.call(ctx, "sendPhoto", photoParams(chatID, photoURL, caption), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func messageParams(chatID int64, text string, markup any) map[string]any {
	params := map[string]any{"chat_id": chatID, "text": text}
	if markup != nil {
		params["reply_markup"] = markup
	}
	return params
}

func photoParams(chatID int64, photoURL, caption string) map[string]any {
	params := map[string]any{"chat_id": chatID, "photo": photoURL}
	if caption != "" {
		params["caption"] = caption
	}
	return params
}

// SendChatAction shows a transient status such as "typing".
func (c *Client) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return c.call(ctx, "sendChatAction", map[string]any{"chat_id": chatID, "action": action}, nil)
}

// AnswerCallbackQuery stops the loading indicator of a clicked inline button.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	params := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		params["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", params, nil)
}

// SetMyCommands replaces the bot's command menu.
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	if commands == nil {
		commands = []BotCommand{}
	}
	return c.call(ctx, "setMyCommands", map[string]any{"commands": commands}, nil)
}

// GetUpdates long-polls for updates with update_id >= offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration, limit int) ([]Update, error) {
	params := map[string]any{
		"timeout":         int(timeout / time.Second),
		"allowed_updates": []string{"message", "callback_query"},
	}
	if offset > 0 {
		params["offset"] = offset
	}
	if limit > 0 {
		params["limit"] = limit
	}

	ctx, cancel := context.WithTimeout(ctx, timeout+pollGrace)
	defer cancel()

	var updates []Update
	if err := c.call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SetWebhook asks Telegram to push updates to url.
func (c *Client) SetWebhook(ctx context.Context, url string) error {
	return c.call(ctx, "setWebhook", map[string]any{
		"url":             url,
		"allowed_updates": []string{"message", "callback_query"},
	}, nil)
}

// DeleteWebhook removes the webhook so getUpdates can be used.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]any{}, nil)
}

// GetWebhookInfo reports the current webhook registration.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, "getWebhookInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
