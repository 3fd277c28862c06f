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

	"github.com/taskmint/mintops/resilience"
)

const (
	// DefaultBaseURL is the OpenAI API base.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when a request names no model.
	DefaultModel = "gpt-4o-mini"

	// DefaultResource names the circuit breaker guarding completion calls.
	DefaultResource = "openai"

	// userAgent identifies outbound requests.
	userAgent = "mintops/1.0"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 32 << 10
)

// ClientConfig configures the completion client.
type ClientConfig struct {
	// BaseURL is the API base, e.g. "https://api.openai.com/v1".
	// Default: DefaultBaseURL
	BaseURL string

	// APIKey is the bearer credential. Required.
	APIKey string

	// Model is the model used when a request names none.
	// Default: DefaultModel
	Model string

	// HTTPClient is the HTTP client to use for requests.
	// If nil, a default client with a 90s transport timeout is used;
	// the logical per-call deadline comes from Policy.Timeout.
	HTTPClient *http.Client

	// Resilience runs calls through timeout/retry/breaker when set.
	// If nil, calls go straight to the endpoint.
	Resilience *resilience.Manager

	// Policy is the resilience preset applied per call.
	Policy resilience.Config

	// Resource names the circuit breaker. Default: DefaultResource
	Resource string
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	config ClientConfig
}

// NewClient creates a completion client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	// Apply defaults
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Resource == "" {
		config.Resource = DefaultResource
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: 90 * time.Second,
		}
	}

	return &Client{config: config}, nil
}

// Complete requests a chat completion. When a resilience manager is
// configured the call runs through it under the client's resource name,
// so timeouts, retries and the circuit breaker apply.
func (c *Client) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	if req.Model == "" {
		withModel := *req
		withModel.Model = c.config.Model
		req = &withModel
	}

	if c.config.Resilience == nil {
		return c.post(ctx, req)
	}
	return resilience.Do(ctx, c.config.Resilience, c.config.Resource, c.config.Policy,
		func(ctx context.Context) (*CompletionResponse, error) {
			return c.post(ctx, req)
		})
}

func (c *Client) post(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("llm: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: call completion endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var out CompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("llm: decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}
	return &out, nil
}

// errorEnvelope is the OpenAI error response format.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		apiErr.Type = envelope.Error.Type
		apiErr.Code = envelope.Error.Code
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// Ensure Client implements CompletionService
var _ CompletionService = (*Client)(nil)
