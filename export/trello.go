package export

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskmint/mintops/resilience"
)

// TrelloBaseURL is the default Trello API endpoint.
const TrelloBaseURL = "https://api.trello.com/1"

// TrelloConfig configures a Trello connector.
type TrelloConfig struct {
	// Key is the application API key. Trello authenticates with a key and
	// token pair carried as query parameters.
	Key string

	// Token supplies the member token.
	Token TokenSource

	// ListID is the list new cards land in.
	ListID string

	// BaseURL overrides the API endpoint. Default: TrelloBaseURL
	BaseURL string

	// HTTPClient is the client used for requests.
	// If nil, a client with a 30 second timeout is used.
	HTTPClient *http.Client

	// Resilience routes calls through the facade when set.
	Resilience *resilience.Manager

	// Policy is the resilience configuration applied per call.
	Policy resilience.Config

	// Resource names the breaker and limiter slot. Default: "trello"
	Resource string
}

// Trello exports items as cards. Labels are not mapped: card labels are
// board-scoped ids on the Trello side, not free-form names.
type Trello struct {
	config TrelloConfig
}

// NewTrello creates a Trello connector.
func NewTrello(config TrelloConfig) (*Trello, error) {
	if config.Key == "" || config.Token == nil {
		return nil, ErrMissingToken
	}
	if config.ListID == "" {
		return nil, ErrMissingDestination
	}
	if config.BaseURL == "" {
		config.BaseURL = TrelloBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.HTTPClient == nil {
		config.HTTPClient = defaultHTTPClient()
	}
	if config.Resource == "" {
		config.Resource = "trello"
	}
	return &Trello{config: config}, nil
}

// Name implements Connector.
func (c *Trello) Name() string { return "trello" }

// Export implements Connector.
func (c *Trello) Export(ctx context.Context, item Item) (*Receipt, error) {
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

func (c *Trello) export(ctx context.Context, item Item) (*Receipt, error) {
	token, err := c.config.Token.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("trello token: %w", err)
	}

	query := url.Values{}
	query.Set("key", c.config.Key)
	query.Set("token", token)
	endpoint := c.config.BaseURL + "/cards?" + query.Encode()

	payload := map[string]any{
		"name":   item.Title,
		"idList": c.config.ListID,
	}
	if item.Notes != "" {
		payload["desc"] = item.Notes
	}
	if !item.Due.IsZero() {
		payload["due"] = item.Due.Format(time.RFC3339)
	}

	var created struct {
		ID       string `json:"id"`
		URL      string `json:"url"`
		ShortURL string `json:"shortUrl"`
	}
	requestID, err := postJSON(ctx, c.config.HTTPClient, "trello", endpoint, payload, &created, nil)
	if err != nil {
		return nil, err
	}

	cardURL := created.ShortURL
	if cardURL == "" {
		cardURL = created.URL
	}
	return &Receipt{
		Provider:   "trello",
		ExternalID: created.ID,
		URL:        cardURL,
		RequestID:  requestID,
	}, nil
}

var _ Connector = (*Trello)(nil)
