package export

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/taskmint/mintops/resilience"
)

const (
	// NotionBaseURL is the default Notion API endpoint.
	NotionBaseURL = "https://api.notion.com/v1"

	// notionVersion pins the API revision the payload shape targets.
	notionVersion = "2022-06-28"
)

// NotionConfig configures a Notion connector.
type NotionConfig struct {
	// Token supplies the integration secret.
	Token TokenSource

	// DatabaseID is the database new pages are created in.
	DatabaseID string

	// BaseURL overrides the API endpoint. Default: NotionBaseURL
	BaseURL string

	// HTTPClient is the client used for requests.
	// If nil, a client with a 30 second timeout is used.
	HTTPClient *http.Client

	// Resilience routes calls through the facade when set.
	Resilience *resilience.Manager

	// Policy is the resilience configuration applied per call.
	Policy resilience.Config

	// Resource names the breaker and limiter slot. Default: "notion"
	Resource string
}

// Notion exports items as pages in a Notion database. The item title maps
// to the Name property, labels to a Tags multi-select, the due date to a
// Due date property, and notes become a paragraph block on the page.
type Notion struct {
	config NotionConfig
}

// NewNotion creates a Notion connector.
func NewNotion(config NotionConfig) (*Notion, error) {
	if config.Token == nil {
		return nil, ErrMissingToken
	}
	if config.DatabaseID == "" {
		return nil, ErrMissingDestination
	}
	if config.BaseURL == "" {
		config.BaseURL = NotionBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.HTTPClient == nil {
		config.HTTPClient = defaultHTTPClient()
	}
	if config.Resource == "" {
		config.Resource = "notion"
	}
	return &Notion{config: config}, nil
}

// Name implements Connector.
func (c *Notion) Name() string { return "notion" }

// Export implements Connector.
func (c *Notion) Export(ctx context.Context, item Item) (*Receipt, error) {
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

func (c *Notion) export(ctx context.Context, item Item) (*Receipt, error) {
	token, err := c.config.Token.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("notion token: %w", err)
	}

	properties := map[string]any{
		"Name": map[string]any{
			"title": []map[string]any{
				{"text": map[string]any{"content": item.Title}},
			},
		},
	}
	if !item.Due.IsZero() {
		properties["Due"] = map[string]any{
			"date": map[string]any{"start": item.Due.Format("2006-01-02")},
		}
	}
	if len(item.Labels) > 0 {
		tags := make([]map[string]any, 0, len(item.Labels))
		for _, label := range item.Labels {
			tags = append(tags, map[string]any{"name": label})
		}
		properties["Tags"] = map[string]any{"multi_select": tags}
	}

	payload := map[string]any{
		"parent":     map[string]any{"database_id": c.config.DatabaseID},
		"properties": properties,
	}
	if item.Notes != "" {
		payload["children"] = []map[string]any{
			{
				"object": "block",
				"type":   "paragraph",
				"paragraph": map[string]any{
					"rich_text": []map[string]any{
						{"type": "text", "text": map[string]any{"content": item.Notes}},
					},
				},
			},
		}
	}

	var created struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	requestID, err := postJSON(ctx, c.config.HTTPClient, "notion", c.config.BaseURL+"/pages", payload, &created,
		func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Notion-Version", notionVersion)
		})
	if err != nil {
		return nil, err
	}

	return &Receipt{
		Provider:   "notion",
		ExternalID: created.ID,
		URL:        created.URL,
		RequestID:  requestID,
	}, nil
}

var _ Connector = (*Notion)(nil)
