package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPCheckerConfig configures an HTTP reachability probe.
type HTTPCheckerConfig struct {
	// URL is the endpoint probed with a GET request.
	URL string

	// Timeout bounds one probe. Default: 5 seconds
	Timeout time.Duration

	// HTTPClient is the client used for probes.
	// If nil, http.DefaultClient is used.
	HTTPClient *http.Client
}

// HTTPChecker probes a downstream endpoint with a GET request. A 2xx
// answer is healthy, a 5xx answer is degraded (the host is up but
// erroring), and anything else, including transport failures, is
// unhealthy.
type HTTPChecker struct {
	name   string
	config HTTPCheckerConfig
}

// NewHTTPChecker creates an HTTP probe named name.
func NewHTTPChecker(name string, config HTTPCheckerConfig) *HTTPChecker {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	return &HTTPChecker{name: name, config: config}
}

// Name implements Checker.
func (c *HTTPChecker) Name() string {
	return c.name
}

// Check implements Checker.
func (c *HTTPChecker) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.URL, nil)
	if err != nil {
		return Unhealthy("invalid probe url", err)
	}

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return Unhealthy("endpoint unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	details := map[string]any{"status_code": resp.StatusCode}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Healthy("endpoint reachable").WithDetails(details)
	case resp.StatusCode >= 500:
		msg := fmt.Sprintf("endpoint erroring (HTTP %d)", resp.StatusCode)
		return Degraded(msg).WithDetails(details)
	default:
		msg := fmt.Sprintf("unexpected response (HTTP %d)", resp.StatusCode)
		return Unhealthy(msg, fmt.Errorf("%w: HTTP %d", ErrProbeFailed, resp.StatusCode)).WithDetails(details)
	}
}

var _ Checker = (*HTTPChecker)(nil)
