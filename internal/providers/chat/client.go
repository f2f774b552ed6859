// Package chat is an OpenAI-compatible chat-completions client with
// function-calling support. The default endpoint is Groq; any
// OpenAI-compatible server works.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"hospital-assistant/internal/common/config"
	commonerrors "hospital-assistant/internal/common/errors"
	commonhttp "hospital-assistant/internal/common/http"
	"hospital-assistant/internal/common/logger"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one chat-completions message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition advertises one callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Model is the completion interface the orchestrator consumes.
type Model interface {
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error)
}

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	httpClient  *commonhttp.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	log         logger.Logger
}

func NewClient(cfg config.ChatProviderConfig, log logger.Logger) *Client {
	return &Client{
		httpClient:  commonhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         log,
	}
}

type completionRequest struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete runs one chat-completions round trip and returns the assistant
// message, which may carry tool calls instead of content.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       tools,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return Message{}, commonerrors.NewChatModelFailedError(err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Message{}, commonerrors.NewChatModelFailedError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return Message{}, commonerrors.NewChatModelFailedError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Message{}, commonerrors.NewChatModelFailedError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return Message{}, commonerrors.NewChatModelFailedError(
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var decoded completionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Message{}, commonerrors.NewChatModelFailedError(err)
	}
	if decoded.Error != nil {
		return Message{}, commonerrors.NewChatModelFailedError(fmt.Errorf("%s", decoded.Error.Message))
	}
	if len(decoded.Choices) == 0 {
		return Message{}, commonerrors.NewChatModelFailedError(fmt.Errorf("empty choices"))
	}
	return decoded.Choices[0].Message, nil
}
