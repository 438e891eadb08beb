package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ramresume-backend/internal/llm"
	"ramresume-backend/internal/shared/telemetry"
)

// DefaultModel is used when LLM_MODEL is unset.
const DefaultModel = "gpt-4o"

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultTimeout  = 120 * time.Second
	temperature     = float32(0.7)
	maxErrorBody    = 512
)

// ErrEmptyReply is returned when the completion carries no usable text.
var ErrEmptyReply = errors.New("openai: empty reply")

// APIError is a non-2xx answer from the Chat Completions endpoint.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("openai: status %d: %s (%s)", e.Status, e.Message, e.Type)
	}
	return fmt.Sprintf("openai: status %d: %s", e.Status, e.Message)
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint points the client at another Chat Completions URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if strings.TrimSpace(url) != "" {
			c.endpoint = url
		}
	}
}

// WithTimeout bounds each request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// Client implements llm.Provider on top of OpenAI Chat Completions.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	http     *http.Client
}

func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model reports the configured model name.
func (c *Client) Model() string { return c.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// buildRequest maps a prompt onto the wire body. Reasoning models reject
// a custom temperature, so it is only sent where the model accepts it.
func (c *Client) buildRequest(prompt llm.Prompt) completionRequest {
	body := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
	}
	if supportsTemperature(c.model) {
		t := temperature
		body.Temperature = &t
	}
	return body
}

// Complete sends the system and user messages and returns the reply text.
func (c *Client) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	payload, err := json.Marshal(c.buildRequest(prompt))
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: send: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: read body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", decodeError(resp.StatusCode, raw)
	}

	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("openai: decode reply: %w", err)
	}

	fields := map[string]any{
		"model":       c.model,
		"prompt_hash": llm.Hash(prompt),
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if u := out.Usage; u != nil {
		fields["prompt_tokens"] = u.PromptTokens
		fields["completion_tokens"] = u.CompletionTokens
		fields["total_tokens"] = u.TotalTokens
	}
	telemetry.Info("llm.response", fields)

	if len(out.Choices) == 0 {
		return "", ErrEmptyReply
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

func decodeError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}
	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		apiErr.Message = env.Error.Message
		apiErr.Type = env.Error.Type
		return apiErr
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	apiErr.Message = msg
	return apiErr
}

// supportsTemperature is false for the gpt-5 family and the o-series
// reasoning models.
func supportsTemperature(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	if strings.HasPrefix(m, "gpt-5") {
		return false
	}
	if len(m) > 1 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9' {
		return false
	}
	return true
}

var _ llm.Provider = (*Client)(nil)
