package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/structra/assignment/internal/ctxlog"
)

// DefaultEndpoint is the OpenAI chat completions endpoint.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// ModelVersion names a chat model.
type ModelVersion string

const (
	GPT35Turbo ModelVersion = "gpt-3.5-turbo"
	GPT4o      ModelVersion = "gpt-4o"
)

// Temperature trades determinism for creativity.
type Temperature float64

const (
	TemperatureLow      Temperature = 0.2
	TemperatureMedium   Temperature = 0.5
	TemperatureHigh     Temperature = 0.8
	TemperatureVeryHigh Temperature = 1
)

// Roles of chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       ModelVersion `json:"model"`
	Messages    []message    `json:"messages"`
	Temperature Temperature  `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatModel talks to a chat completions API. Every Execute call sends the
// system context followed by the whole conversation so far, and appends the
// reply to it.
type ChatModel struct {
	keys        KeyProvider
	version     ModelVersion
	temperature Temperature
	endpoint    string
	client      *http.Client

	mu      sync.Mutex
	context string
	history []message
}

// ChatOption configures a ChatModel.
type ChatOption func(*ChatModel)

// WithVersion selects the model. The default is GPT35Turbo.
func WithVersion(v ModelVersion) ChatOption { return func(c *ChatModel) { c.version = v } }

// WithTemperature sets the sampling temperature. The default is TemperatureLow.
func WithTemperature(t Temperature) ChatOption { return func(c *ChatModel) { c.temperature = t } }

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(url string) ChatOption { return func(c *ChatModel) { c.endpoint = url } }

// WithHTTPClient replaces the default client, which times out after 60s.
func WithHTTPClient(client *http.Client) ChatOption {
	return func(c *ChatModel) { c.client = client }
}

// NewChatModel returns a ChatModel authenticating with keys.
func NewChatModel(keys KeyProvider, opts ...ChatOption) (*ChatModel, error) {
	if keys == nil {
		return nil, errors.New("key provider must not be nil")
	}
	c := &ChatModel{
		keys:        keys,
		version:     GPT35Turbo,
		temperature: TemperatureLow,
		endpoint:    DefaultEndpoint,
		client:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *ChatModel) SetContext(systemContext string) {
	c.mu.Lock()
	c.context = systemContext
	c.mu.Unlock()
}

// History returns a copy of the conversation, without the system context.
func (c *ChatModel) History() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.history))
	for i, m := range c.history {
		out[i] = m.Role + ": " + m.Content
	}
	return out
}

func (c *ChatModel) Execute(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.history = append(c.history, message{Role: RoleUser, Content: prompt})
	req := chatRequest{
		Model:       c.version,
		Messages:    append([]message{{Role: RoleSystem, Content: c.context}}, c.history...),
		Temperature: c.temperature,
	}
	c.mu.Unlock()

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.keys.APIKey())
	httpReq.Header.Set("Content-Type", "application/json")

	log := ctxlog.FromContext(ctx)
	log.Debug("chat request", "endpoint", c.endpoint, "model", c.version, "messages", len(req.Messages))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	decodeErr := json.Unmarshal(data, &parsed)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrAccessDenied
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("endpoint not found: %s", c.endpoint)
	case resp.StatusCode >= 300:
		if decodeErr == nil && parsed.Error != nil {
			return "", fmt.Errorf("chat request: %s: %s", resp.Status, parsed.Error.Message)
		}
		return "", fmt.Errorf("chat request: %s", resp.Status)
	case decodeErr != nil:
		return "", fmt.Errorf("decode response: %w", decodeErr)
	case len(parsed.Choices) == 0:
		return "", errors.New("decode response: no choices")
	}

	reply := parsed.Choices[0].Message.Content
	log.Debug("chat reply", "bytes", len(reply))

	c.mu.Lock()
	c.history = append(c.history, message{Role: RoleAssistant, Content: reply})
	c.mu.Unlock()
	return reply, nil
}
