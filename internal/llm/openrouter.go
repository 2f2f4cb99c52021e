package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOpenRouterURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel = "openai/gpt-3.5-turbo"
	defaultReferer         = "http://localhost:3000"
	appTitle               = "AI Agent Assistant"
)

// OpenRouterClient is an OpenAI-compatible chat completions client for OpenRouter
type OpenRouterClient struct {
	apiKey     string
	model      string
	apiURL     string
	referer    string
	httpClient *http.Client
}

// NewOpenRouterClient creates a new OpenRouter client. referer is sent as
// HTTP-Referer and is usually the public base URL of this service.
func NewOpenRouterClient(apiKey, model, referer string) *OpenRouterClient {
	if model == "" {
		model = defaultOpenRouterModel
	}
	if referer == "" {
		referer = defaultReferer
	}

	return &OpenRouterClient{
		apiKey:  apiKey,
		model:   model,
		apiURL:  defaultOpenRouterURL,
		referer: referer,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type openRouterRequest struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// WithAPIURL points the client at another OpenAI-compatible endpoint
func (c *OpenRouterClient) WithAPIURL(apiURL string) *OpenRouterClient {
	if apiURL != "" {
		c.apiURL = apiURL
	}
	return c
}

// Complete sends the conversation and returns the first choice's content
func (c *OpenRouterClient) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openRouterRequest{
		Model:    c.model,
		Messages: messages,
	}
	req.ResponseFormat.Type = "json_object"

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("HTTP-Referer", c.referer)
	httpReq.Header.Set("X-Title", appTitle)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body), KeyEnv: "OPENROUTER_API_KEY"}
	}

	var apiResp openRouterResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(apiResp.Choices) == 0 || apiResp.Choices[0].Message.Content == "" {
		return emptyReply, nil
	}
	return apiResp.Choices[0].Message.Content, nil
}

// Name identifies the provider in logs and metrics
func (c *OpenRouterClient) Name() string {
	return "openrouter"
}

// IsConfigured returns true if the client has an API key
func (c *OpenRouterClient) IsConfigured() bool {
	return c.apiKey != ""
}
