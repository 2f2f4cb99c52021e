package llm

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

const (
	defaultAnthropicURL   = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultMaxTokens      = 1024
	anthropicVersion      = "2023-06-01"
)

// AnthropicClient is a Claude Messages API client
type AnthropicClient struct {
	apiKey      string
	model       string
	apiURL      string
	httpClient  *http.Client
	temperature float64
}

// NewAnthropicClient creates a new Claude API client
func NewAnthropicClient(apiKey, model string, temperature float64) *AnthropicClient {
	if model == "" {
		model = defaultAnthropicModel
	}
	if temperature <= 0 {
		temperature = 0.1
	}

	return &AnthropicClient{
		apiKey:      apiKey,
		model:       model,
		apiURL:      defaultAnthropicURL,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithAPIURL points the client at another Messages API endpoint
func (c *AnthropicClient) WithAPIURL(apiURL string) *AnthropicClient {
	if apiURL != "" {
		c.apiURL = apiURL
	}
	return c
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation to Claude. System-role messages are lifted
// into the request's system field since the Messages API rejects them inline.
func (c *AnthropicClient) Complete(ctx context.Context, messages []Message) (string, error) {
	var system []string
	turns := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}

	req := anthropicRequest{
		Model:       c.model,
		MaxTokens:   defaultMaxTokens,
		Temperature: c.temperature,
		System:      strings.Join(system, "\n\n"),
		Messages:    turns,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body), KeyEnv: "ANTHROPIC_API_KEY"}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	if len(apiResp.Content) == 0 || apiResp.Content[0].Text == "" {
		return emptyReply, nil
	}

	return apiResp.Content[0].Text, nil
}

// Name identifies the provider in logs and metrics
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// IsConfigured returns true if the client has an API key
func (c *AnthropicClient) IsConfigured() bool {
	return c.apiKey != ""
}
