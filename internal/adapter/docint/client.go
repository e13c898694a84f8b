package docint

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dup0630/param-ext-mcgill-phac/internal/domain"
)

// Client calls the Azure Document Intelligence prebuilt-layout model.
// Analysis is asynchronous: the submit call returns an operation URL which
// is polled until the service reports success or failure.
type Client struct {
	apiKey       string
	endpoint     string
	apiVersion   string
	client       *http.Client
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// Options configures a Client. Endpoint and the key environment variable
// are required.
type Options struct {
	Endpoint     string
	APIVersion   string
	APIKeyEnv    string
	Timeout      time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

type analyzeRequest struct {
	Base64Source string `json:"base64Source"`
}

type analyzeOperation struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult"`
	Error         *apiError      `json:"error,omitempty"`
}

type analyzeResult struct {
	Pages      []page      `json:"pages"`
	Tables     []table     `json:"tables"`
	Paragraphs []paragraph `json:"paragraphs"`
	Sections   []section   `json:"sections"`
}

type page struct {
	PageNumber int    `json:"pageNumber"`
	Lines      []line `json:"lines"`
}

type line struct {
	Content string `json:"content"`
}

type table struct {
	RowCount    int         `json:"rowCount"`
	ColumnCount int         `json:"columnCount"`
	Cells       []tableCell `json:"cells"`
}

type tableCell struct {
	RowIndex    int    `json:"rowIndex"`
	ColumnIndex int    `json:"columnIndex"`
	Content     string `json:"content"`
}

type paragraph struct {
	Content string `json:"content"`
}

type section struct {
	Elements []string `json:"elements"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewClient(opts Options) (*Client, error) {
	apiKey := os.Getenv(opts.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", opts.APIKeyEnv)
	}
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("document intelligence endpoint not set")
	}

	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-11-30"
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Minute
	}

	return &Client{
		apiKey:     apiKey,
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		apiVersion: apiVersion,
		client: &http.Client{
			Timeout: timeout,
		},
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}, nil
}

// Analyze submits the PDF for layout analysis and polls until the result
// is ready. The paperID is only used in error messages; the service
// does not see it.
func (c *Client) Analyze(paperID string, pdf []byte) (*domain.Layout, error) {
	operationURL, err := c.submit(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", paperID, err)
	}

	result, err := c.poll(operationURL)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze %s: %w", paperID, err)
	}

	return buildLayout(result), nil
}

func (c *Client) submit(pdf []byte) (string, error) {
	reqBody := analyzeRequest{
		Base64Source: base64.StdEncoding.EncodeToString(pdf),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/documentintelligence/documentModels/prebuilt-layout:analyze?api-version=%s", c.endpoint, c.apiVersion)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", fmt.Errorf("API response missing Operation-Location header")
	}

	return operationURL, nil
}

func (c *Client) poll(operationURL string) (*analyzeResult, error) {
	deadline := time.Now().Add(c.pollTimeout)

	for {
		op, err := c.fetchOperation(operationURL)
		if err != nil {
			return nil, err
		}

		switch op.Status {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, fmt.Errorf("analysis succeeded but result is empty")
			}
			return op.AnalyzeResult, nil
		case "failed":
			if op.Error != nil {
				return nil, fmt.Errorf("analysis failed: %s: %s", op.Error.Code, op.Error.Message)
			}
			return nil, fmt.Errorf("analysis failed")
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("analysis did not finish within %s", c.pollTimeout)
		}
		time.Sleep(c.pollInterval)
	}
}

func (c *Client) fetchOperation(operationURL string) (*analyzeOperation, error) {
	req, err := http.NewRequest("GET", operationURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var op analyzeOperation
	if err := json.Unmarshal(body, &op); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200]
		}
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview, err)
	}

	return &op, nil
}

// MockAnalyzer serves canned layouts keyed by paper id and counts calls.
type MockAnalyzer struct {
	Layouts map[string]*domain.Layout
	Calls   int
	Err     error
}

func (m *MockAnalyzer) Analyze(paperID string, pdf []byte) (*domain.Layout, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	layout, ok := m.Layouts[paperID]
	if !ok {
		return nil, fmt.Errorf("mock: no layout for %s", paperID)
	}
	return layout, nil
}
