package watsonx

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

	"golang.org/x/oauth2"

	"compliance-analyzer/internal/llm"
	"compliance-analyzer/internal/shared/telemetry"
)

const defaultTimeout = 60 * time.Second

// Client implements llm.Client against the watsonx.ai text generation API.
type Client struct {
	url       string
	projectID string
	timeout   time.Duration
	base      http.RoundTripper
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport overrides the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

// NewClient constructs a watsonx client for the given endpoint and project.
func NewClient(url, projectID string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("WATSONX_URL is required")
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("WATSONX_PROJECT_ID is required")
	}
	c := &Client{
		url:       url,
		projectID: projectID,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type generationRequest struct {
	ModelID    string               `json:"model_id"`
	ProjectID  string               `json:"project_id"`
	Input      string               `json:"input"`
	Parameters llm.GenerationParams `json:"parameters"`
}

// Generate posts the prompt and returns the response body verbatim.
func (c *Client) Generate(ctx context.Context, token *oauth2.Token, req llm.Request) llm.Result {
	if token == nil || token.AccessToken == "" {
		return llm.Failure(errors.New("missing bearer token"))
	}

	params := req.Params
	if params.StopSequences == nil {
		params.StopSequences = []string{}
	}
	payload, err := json.Marshal(generationRequest{
		ModelID:    req.ModelID,
		ProjectID:  c.projectID,
		Input:      req.Input,
		Parameters: params,
	})
	if err != nil {
		return llm.Failure(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return llm.Failure(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient(token).Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Failure(fmt.Errorf("watsonx request timeout: %w", err))
		}
		return llm.Failure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Failure(err)
	}
	logResponse(req.ModelID, resp.StatusCode, time.Since(start), body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return llm.Failure(fmt.Errorf("%s for url: %s", resp.Status, c.url))
	}
	if !json.Valid(body) {
		return llm.Failure(errors.New("response body is not valid JSON"))
	}
	return llm.Success(json.RawMessage(body))
}

func (c *Client) httpClient(token *oauth2.Token) *http.Client {
	return &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   c.base,
		},
	}
}

type usageEnvelope struct {
	Results []struct {
		InputTokenCount     int    `json:"input_token_count"`
		GeneratedTokenCount int    `json:"generated_token_count"`
		StopReason          string `json:"stop_reason"`
	} `json:"results"`
}

func logResponse(model string, status int, elapsed time.Duration, body []byte) {
	fields := map[string]any{
		"model":       model,
		"status":      status,
		"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
	}
	var usage usageEnvelope
	if err := json.Unmarshal(body, &usage); err == nil && len(usage.Results) > 0 {
		fields["input_tokens"] = usage.Results[0].InputTokenCount
		fields["generated_tokens"] = usage.Results[0].GeneratedTokenCount
		fields["stop_reason"] = usage.Results[0].StopReason
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Client = (*Client)(nil)
