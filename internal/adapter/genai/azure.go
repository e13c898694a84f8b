package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
)

// AzureClient calls the Azure OpenAI chat completions REST API for one
// deployment. Requests are sent with temperature 0 so repeated extractions
// stay comparable across runs.
type AzureClient struct {
	apiKey     string
	deployment string
	endpoint   string
	apiVersion string
	client     *http.Client
	limiter    *rate.Limiter
}

// AzureOptions configures an AzureClient. Endpoint, APIVersion and the key
// environment variable are required.
type AzureOptions struct {
	Endpoint          string
	APIVersion        string
	APIKeyEnv         string
	Deployment        string
	Timeout           time.Duration
	RequestsPerMinute int
}

type chatRequest struct {
	Messages    []domain.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func NewAzureClient(opts AzureOptions) (*AzureClient, error) {
	apiKey := os.Getenv(opts.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
	}
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("openai endpoint not set")
	}
	if opts.APIVersion == "" {
		return nil, fmt.Errorf("openai api version not set")
	}

	deployment := opts.Deployment
	if deployment == "" {
		deployment = "gpt-4o-mini"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1)
	}

	return &AzureClient{
		apiKey:     apiKey,
		deployment: deployment,
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		apiVersion: opts.APIVersion,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
	}, nil
}

func (c *AzureClient) Generate(messages []domain.Message) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	reqBody := chatRequest{
		Messages:    messages,
		Temperature: 0,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s", c.endpoint, c.deployment, c.apiVersion)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200]
		}
		return "", fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview, err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("API returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}

func (c *AzureClient) ModelName() string {
	return c.deployment
}

// MockLLM replays a scripted sequence of replies and records every
// message list it receives.
type MockLLM struct {
	Script []MockReply
	Calls  [][]domain.Message
	call   int
}

type MockReply struct {
	Text string
	Err  error
}

func NewMockLLM(script ...MockReply) *MockLLM {
	return &MockLLM{Script: script}
}

func (m *MockLLM) Generate(messages []domain.Message) (string, error) {
	m.Calls = append(m.Calls, messages)
	if m.call >= len(m.Script) {
		return "", fmt.Errorf("mock: no reply scripted for call %d", m.call+1)
	}
	reply := m.Script[m.call]
	m.call++
	return reply.Text, reply.Err
}

func (m *MockLLM) ModelName() string {
	return "mock"
}
