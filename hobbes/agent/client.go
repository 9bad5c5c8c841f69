package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRequestTimeout = 2 * time.Minute

// Tool describes a function the model may call.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction is the schema-bearing part of a tool definition.
type ToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the call target and its JSON-encoded arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ResponseMessage is the assistant message of a completion choice.
type ResponseMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// Completer performs one chat-completion round trip. Implemented by
// Client; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, messages []Message, tools []Tool) (ResponseMessage, error)
}

// ClientConfig configures the chat-completions client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	// Referer and Title are forwarded as the extra headers some
	// OpenAI-compatible gateways (OpenRouter) use for attribution.
	Referer string
	Title   string
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	config     ClientConfig
}

// NewClient creates a client for the configured endpoint.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message ResponseMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the message history (plus optional tool definitions)
// and returns the first choice's message.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []Tool) (ResponseMessage, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		return ResponseMessage{}, fmt.Errorf("failed to encode request: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ResponseMessage{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if c.config.Referer != "" {
		req.Header.Set("HTTP-Referer", c.config.Referer)
	}
	if c.config.Title != "" {
		req.Header.Set("X-Title", c.config.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ResponseMessage{}, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ResponseMessage{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ResponseMessage{}, fmt.Errorf("completion request returned %s: %s", resp.Status, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ResponseMessage{}, fmt.Errorf("malformed completion response: %w", err)
	}
	if parsed.Error != nil {
		return ResponseMessage{}, fmt.Errorf("completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return ResponseMessage{}, fmt.Errorf("completion response has no choices")
	}

	return parsed.Choices[0].Message, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

var _ Completer = (*Client)(nil)
