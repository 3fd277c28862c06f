package export

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// GoogleTokenURL is the OAuth2 endpoint that redeems service account
	// assertions.
	GoogleTokenURL = "https://oauth2.googleapis.com/token"

	// TasksScope authorizes the Google Tasks API.
	TasksScope = "https://www.googleapis.com/auth/tasks"

	jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"
)

// ServiceAccountConfig configures a Google service account token source.
type ServiceAccountConfig struct {
	// Email is the service account's client_email, used as the JWT issuer.
	Email string

	// PrivateKeyPEM is the account's RSA signing key in PEM form.
	PrivateKeyPEM []byte

	// Scope is the OAuth scope requested. Default: TasksScope
	Scope string

	// TokenURL overrides the token endpoint. Default: GoogleTokenURL
	TokenURL string

	// HTTPClient is the client used for the token exchange.
	// If nil, a client with a 30 second timeout is used.
	HTTPClient *http.Client
}

// serviceAccountClaims is the assertion payload for the JWT-bearer grant.
// Google reads the requested scope from a private claim.
type serviceAccountClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// ServiceAccountTokenSource performs the Google OAuth2 JWT-bearer grant:
// it signs an RS256 assertion with the service account key and trades it
// for an access token, cached until shortly before it expires.
type ServiceAccountTokenSource struct {
	config     ServiceAccountConfig
	privateKey *rsa.PrivateKey

	mu      sync.Mutex
	token   string
	expires time.Time

	now func() time.Time
}

// NewServiceAccountTokenSource creates a Google service account token source.
func NewServiceAccountTokenSource(config ServiceAccountConfig) (*ServiceAccountTokenSource, error) {
	if config.Email == "" {
		return nil, errors.New("export: service account email is required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(config.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	if config.Scope == "" {
		config.Scope = TasksScope
	}
	if config.TokenURL == "" {
		config.TokenURL = GoogleTokenURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = defaultHTTPClient()
	}
	return &ServiceAccountTokenSource{
		config:     config,
		privateKey: key,
		now:        time.Now,
	}, nil
}

// Token implements TokenSource, returning the cached access token or
// refreshing it when stale.
func (s *ServiceAccountTokenSource) Token(ctx context.Context) (string, error) {
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

func (s *ServiceAccountTokenSource) refresh(ctx context.Context) (string, time.Time, error) {
	now := s.now()
	claims := serviceAccountClaims{
		Scope: s.config.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Email,
			Audience:  jwt.ClaimStrings{s.config.TokenURL},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.config.HTTPClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("request access token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, decodeAPIError("google", "", resp)
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return "", time.Time{}, fmt.Errorf("decode access token: %w", err)
	}
	if grant.AccessToken == "" {
		return "", time.Time{}, errors.New("export: empty access token")
	}
	return grant.AccessToken, now.Add(time.Duration(grant.ExpiresIn) * time.Second), nil
}

var _ TokenSource = (*ServiceAccountTokenSource)(nil)
