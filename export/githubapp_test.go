package export

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testKeyPEM generates an RSA signing key for token source tests.
func testKeyPEM(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return pemBytes, key
}

func TestNewAppTokenSource_Validation(t *testing.T) {
	keyPEM, _ := testKeyPEM(t)

	if _, err := NewAppTokenSource(AppTokenConfig{InstallationID: "1", PrivateKeyPEM: keyPEM}); err == nil {
		t.Error("NewAppTokenSource() without app id succeeded")
	}
	if _, err := NewAppTokenSource(AppTokenConfig{AppID: "1", PrivateKeyPEM: keyPEM}); err == nil {
		t.Error("NewAppTokenSource() without installation id succeeded")
	}
	if _, err := NewAppTokenSource(AppTokenConfig{AppID: "1", InstallationID: "2", PrivateKeyPEM: []byte("not a key")}); err == nil {
		t.Error("NewAppTokenSource() with invalid key succeeded")
	}
}

func TestAppTokenSource_Token(t *testing.T) {
	keyPEM, key := testKeyPEM(t)

	calls := 0
	var gotPath, gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")

		w.WriteHeader(http.StatusCreated)
		expires := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
		_, _ = fmt.Fprintf(w, `{"token":"ghs_abc","expires_at":%q}`, expires)
	}))
	defer srv.Close()

	source, err := NewAppTokenSource(AppTokenConfig{
		AppID:          "12345",
		InstallationID: "678",
		PrivateKeyPEM:  keyPEM,
		BaseURL:        srv.URL,
	})
	if err != nil {
		t.Fatalf("NewAppTokenSource() error = %v", err)
	}

	token, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if token != "ghs_abc" {
		t.Errorf("Token() = %q, want ghs_abc", token)
	}

	if gotPath != "/app/installations/678/access_tokens" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAccept != "application/vnd.github+json" {
		t.Errorf("Accept = %q", gotAccept)
	}

	// The exchange is authenticated with an RS256 app JWT issued by the app
	raw := strings.TrimPrefix(gotAuth, "Bearer ")
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return &key.PublicKey, nil
	})
	if err != nil {
		t.Fatalf("parse app jwt: %v", err)
	}
	claims := parsed.Claims.(*jwt.RegisteredClaims)
	if claims.Issuer != "12345" {
		t.Errorf("jwt issuer = %q, want 12345", claims.Issuer)
	}
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime <= 0 || lifetime > 10*time.Minute {
		t.Errorf("jwt lifetime = %v, want within GitHub's ten minute cap", lifetime)
	}

	// A second call within the validity window reuses the cached token
	again, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("second Token() error = %v", err)
	}
	if again != "ghs_abc" {
		t.Errorf("second Token() = %q, want ghs_abc", again)
	}
	if calls != 1 {
		t.Errorf("token endpoint calls = %d, want 1", calls)
	}
}

func TestAppTokenSource_RefreshWhenStale(t *testing.T) {
	keyPEM, _ := testKeyPEM(t)

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		// Expiry inside the slack window, so every call refreshes
		expires := time.Now().Add(30 * time.Second).UTC().Format(time.RFC3339)
		_, _ = fmt.Fprintf(w, `{"token":"ghs_%d","expires_at":%q}`, calls, expires)
	}))
	defer srv.Close()

	source, err := NewAppTokenSource(AppTokenConfig{
		AppID:          "12345",
		InstallationID: "678",
		PrivateKeyPEM:  keyPEM,
		BaseURL:        srv.URL,
	})
	if err != nil {
		t.Fatalf("NewAppTokenSource() error = %v", err)
	}

	first, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("first Token() error = %v", err)
	}
	second, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("second Token() error = %v", err)
	}

	if first != "ghs_1" || second != "ghs_2" {
		t.Errorf("tokens = %q, %q, want ghs_1 then ghs_2", first, second)
	}
	if calls != 2 {
		t.Errorf("token endpoint calls = %d, want 2", calls)
	}
}

func TestAppTokenSource_ExchangeError(t *testing.T) {
	keyPEM, _ := testKeyPEM(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer srv.Close()

	source, err := NewAppTokenSource(AppTokenConfig{
		AppID:          "12345",
		InstallationID: "678",
		PrivateKeyPEM:  keyPEM,
		BaseURL:        srv.URL,
	})
	if err != nil {
		t.Fatalf("NewAppTokenSource() error = %v", err)
	}

	_, err = source.Token(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not *APIError", err)
	}
	if apiErr.StatusCode != 401 || apiErr.Message != "Bad credentials" {
		t.Errorf("APIError = %+v, want 401 Bad credentials", apiErr)
	}
}
