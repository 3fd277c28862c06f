package export

import (
	"context"
	"time"
)

// Item is a unit of work to push to an external tracker. Title is the only
// required field; connectors map the rest onto whatever their provider can
// represent and fold the remainder into free text.
type Item struct {
	Title    string
	Notes    string
	Labels   []string
	Due      time.Time
	SourceID string
}

// Receipt identifies the remote object a connector created.
type Receipt struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
	URL        string `json:"url,omitempty"`
	RequestID  string `json:"request_id"`
}

// Connector exports items to a single provider.
type Connector interface {
	// Name identifies the provider, e.g. "notion".
	Name() string

	// Export creates a remote object for the item.
	Export(ctx context.Context, item Item) (*Receipt, error)
}

// TokenSource supplies a bearer credential for outbound calls. Sources that
// mint short-lived tokens refresh them here; callers fetch a fresh token per
// attempt so a retry never reuses one that expired mid-flight.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token, such as a Notion integration
// secret or a GitHub personal access token.
type StaticTokenSource string

// Token implements TokenSource.
func (s StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrMissingToken
	}
	return string(s), nil
}
