package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	userAgent    = "mintops/1.0"
	maxErrorBody = 32 << 10
)

// defaultHTTPClient bounds a single provider call; retries and overall
// deadlines belong to the resilience layer above.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// postJSON sends payload to url and decodes a 2xx reply into out. Every
// request carries a fresh uuid in X-Request-Id, returned to the caller so
// receipts and logs can reference the exchange. decorate runs after the
// standard headers are set, for provider auth and version headers. Non-2xx
// replies map to *APIError.
func postJSON(ctx context.Context, hc *http.Client, provider, url string, payload, out any, decorate func(*http.Request)) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if decorate != nil {
		decorate(req)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return requestID, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return requestID, decodeAPIError(provider, requestID, resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return requestID, fmt.Errorf("decode response: %w", err)
		}
	}
	return requestID, nil
}

// decodeAPIError drains an error response into an *APIError. Providers
// disagree on envelope shape, so it tries the two common ones and falls
// back to the raw body.
func decodeAPIError(provider, requestID string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		switch {
		case envelope.Message != "":
			msg = envelope.Message
		case envelope.Error.Message != "":
			msg = envelope.Error.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    msg,
		RequestID:  requestID,
	}
}
