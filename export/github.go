package export

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/taskmint/mintops/resilience"
)

// GitHubBaseURL is the default GitHub REST API endpoint.
const GitHubBaseURL = "https://api.github.com"

// GitHubConfig configures a GitHub connector.
type GitHubConfig struct {
	// Token supplies the credential: a personal access token via
	// StaticTokenSource or installation tokens via AppTokenSource.
	Token TokenSource

	// Owner and Repo locate the repository issues are created in.
	Owner string
	Repo  string

	// BaseURL overrides the API endpoint. Default: GitHubBaseURL
	BaseURL string

	// HTTPClient is the client used for requests.
	// If nil, a client with a 30 second timeout is used.
	HTTPClient *http.Client

	// Resilience routes calls through the facade when set.
	Resilience *resilience.Manager

	// Policy is the resilience configuration applied per call.
	Policy resilience.Config

	// Resource names the breaker and limiter slot. Default: "github"
	Resource string
}

// GitHub exports items as repository issues. Issues have no due date, so a
// set due date is appended to the body text.
type GitHub struct {
	config GitHubConfig
}

// NewGitHub creates a GitHub connector.
func NewGitHub(config GitHubConfig) (*GitHub, error) {
	if config.Token == nil {
		return nil, ErrMissingToken
	}
	if config.Owner == "" || config.Repo == "" {
		return nil, ErrMissingDestination
	}
	if config.BaseURL == "" {
		config.BaseURL = GitHubBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.HTTPClient == nil {
		config.HTTPClient = defaultHTTPClient()
	}
	if config.Resource == "" {
		config.Resource = "github"
	}
	return &GitHub{config: config}, nil
}

// Name implements Connector.
func (c *GitHub) Name() string { return "github" }

// Export implements Connector.
func (c *GitHub) Export(ctx context.Context, item Item) (*Receipt, error) {
	if item.Title == "" {
		return nil, ErrEmptyTitle
	}
	if c.config.Resilience == nil {
		return c.export(ctx, item)
	}
	return resilience.Do(ctx, c.config.Resilience, c.config.Resource, c.config.Policy,
		func(ctx context.Context) (*Receipt, error) {
			return c.export(ctx, item)
		})
}

func (c *GitHub) export(ctx context.Context, item Item) (*Receipt, error) {
	token, err := c.config.Token.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("github token: %w", err)
	}

	body := item.Notes
	if !item.Due.IsZero() {
		if body != "" {
			body += "\n\n"
		}
		body += "Due: " + item.Due.Format("2006-01-02")
	}

	payload := map[string]any{"title": item.Title}
	if body != "" {
		payload["body"] = body
	}
	if len(item.Labels) > 0 {
		payload["labels"] = item.Labels
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/issues", c.config.BaseURL, c.config.Owner, c.config.Repo)

	var created struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	requestID, err := postJSON(ctx, c.config.HTTPClient, "github", endpoint, payload, &created,
		func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Accept", "application/vnd.github+json")
		})
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Provider:   "github",
		ExternalID: strconv.Itoa(created.Number),
		URL:        created.HTMLURL,
		RequestID:  requestID,
	}, nil
}

var _ Connector = (*GitHub)(nil)
