package export

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenSlack is how much remaining validity a cached token must have to be
// reused; anything closer to expiry is refreshed early so it cannot lapse
// mid-request.
const tokenSlack = time.Minute

// AppTokenConfig configures a GitHub App token source.
type AppTokenConfig struct {
	// AppID is the numeric GitHub App identifier, used as the JWT issuer.
	AppID string

	// InstallationID selects the installation tokens are minted for.
	InstallationID string

	// PrivateKeyPEM is the app's RSA signing key in PEM form.
	PrivateKeyPEM []byte

	// BaseURL overrides the API endpoint. Default: GitHubBaseURL
	BaseURL string

	// HTTPClient is the client used for the token exchange.
	// If nil, a client with a 30 second timeout is used.
	HTTPClient *http.Client
}

// AppTokenSource mints GitHub App installation tokens. Each refresh signs a
// short-lived RS256 app JWT and exchanges it for an installation access
// token, which is cached until shortly before GitHub expires it (about an
// hour).
type AppTokenSource struct {
	config     AppTokenConfig
	privateKey *rsa.PrivateKey

	mu      sync.Mutex
	token   string
	expires time.Time

	now func() time.Time
}

// NewAppTokenSource creates a GitHub App token source.
func NewAppTokenSource(config AppTokenConfig) (*AppTokenSource, error) {
	if config.AppID == "" {
		return nil, errors.New("export: github app id is required")
	}
	if config.InstallationID == "" {
		return nil, errors.New("export: github installation id is required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(config.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if config.BaseURL == "" {
		config.BaseURL = GitHubBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.HTTPClient == nil {
		config.HTTPClient = defaultHTTPClient()
	}
	return &AppTokenSource{
		config:     config,
		privateKey: key,
		now:        time.Now,
	}, nil
}

// Token implements TokenSource, returning the cached installation token or
// refreshing it when stale.
func (s *AppTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Add(tokenSlack).Before(s.expires) {
		return s.token, nil
	}

	token, expires, err := s.refresh(ctx)
	if err != nil {
		return "", err
	}
	s.token, s.expires = token, expires
	return token, nil
}

func (s *AppTokenSource) refresh(ctx context.Context) (string, time.Time, error) {
	appJWT, err := s.signJWT()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign app jwt: %w", err)
	}

	endpoint := fmt.Sprintf("%s/app/installations/%s/access_tokens", s.config.BaseURL, s.config.InstallationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.config.HTTPClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("request installation token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return "", time.Time{}, decodeAPIError("github", "", resp)
	}

	var grant struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", time.Time{}, fmt.Errorf("decode installation token: %w", err)
	}
	if grant.Token == "" {
		return "", time.Time{}, errors.New("export: empty installation token")
	}
	return grant.Token, grant.ExpiresAt, nil
}

// signJWT issues the app JWT GitHub exchanges for an installation token.
// Issued-at is backdated a minute to absorb clock skew; GitHub caps the
// lifetime at ten minutes.
func (s *AppTokenSource) signJWT() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.config.AppID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
}

var _ TokenSource = (*AppTokenSource)(nil)
