package export

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/taskmint/mintops/resilience"
)

// GoogleTasksBaseURL is the default Google Tasks API endpoint.
const GoogleTasksBaseURL = "https://tasks.googleapis.com/tasks/v1"

// GoogleTasksConfig configures a Google Tasks connector.
type GoogleTasksConfig struct {
	// Token supplies the access token, typically a
	// ServiceAccountTokenSource scoped to the Tasks API.
	Token TokenSource

	// TasklistID is the task list new tasks are inserted into.
	TasklistID string

	// BaseURL overrides the API endpoint. Default: GoogleTasksBaseURL
	BaseURL string

	// HTTPClient is the client used for requests.
	// If nil, a client with a 30 second timeout is used.
	HTTPClient *http.Client

	// Resilience routes calls through the facade when set.
	Resilience *resilience.Manager

	// Policy is the resilience configuration applied per call.
	Policy resilience.Config

	// Resource names the breaker and limiter slot. Default: "gtasks"
	Resource string
}

// GoogleTasks exports items as tasks. The API has no label concept, so
// labels are folded into the notes text.
type GoogleTasks struct {
	config GoogleTasksConfig
}

// NewGoogleTasks creates a Google Tasks connector.
func NewGoogleTasks(config GoogleTasksConfig) (*GoogleTasks, error) {
	if config.Token == nil {
		return nil, ErrMissingToken
	}
	if config.TasklistID == "" {
		return nil, ErrMissingDestination
	}
	if config.BaseURL == "" {
		config.BaseURL = GoogleTasksBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.HTTPClient == nil {
		config.HTTPClient = defaultHTTPClient()
	}
	if config.Resource == "" {
		config.Resource = "gtasks"
	}
	return &GoogleTasks{config: config}, nil
}

// Name implements Connector.
func (c *GoogleTasks) Name() string { return "gtasks" }

// Export implements Connector.
func (c *GoogleTasks) Export(ctx context.Context, item Item) (*Receipt, error) {
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

func (c *GoogleTasks) export(ctx context.Context, item Item) (*Receipt, error) {
	token, err := c.config.Token.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("gtasks token: %w", err)
	}

	notes := item.Notes
	if len(item.Labels) > 0 {
		if notes != "" {
			notes += "\n\n"
		}
		notes += "Labels: " + strings.Join(item.Labels, ", ")
	}

	payload := map[string]any{"title": item.Title}
	if notes != "" {
		payload["notes"] = notes
	}
	if !item.Due.IsZero() {
		payload["due"] = item.Due.UTC().Format(time.RFC3339)
	}

	endpoint := fmt.Sprintf("%s/lists/%s/tasks", c.config.BaseURL, c.config.TasklistID)

	var created struct {
		ID       string `json:"id"`
		SelfLink string `json:"selfLink"`
	}
	requestID, err := postJSON(ctx, c.config.HTTPClient, "gtasks", endpoint, payload, &created,
		func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		})
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Provider:   "gtasks",
		ExternalID: created.ID,
		URL:        created.SelfLink,
		RequestID:  requestID,
	}, nil
}

var _ Connector = (*GoogleTasks)(nil)
