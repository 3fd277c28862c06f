package secret

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider resolves secrets from process environment variables.
// The ref is the variable name, e.g. "secretref:env:OPENAI_API_KEY".
type EnvProvider struct{}

var _ Provider = (*EnvProvider)(nil)

// NewEnvProvider creates an environment variable provider.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Name returns the provider name used in secret references.
func (p *EnvProvider) Name() string { return "env" }

// Resolve looks up the environment variable named by ref.
// A set-but-empty variable resolves to the empty string; the strict
// Resolver rejects that downstream.
func (p *EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("env: ref is required")
	}
	value, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("env: variable %q is not set", ref)
	}
	return value, nil
}

// Close is a no-op.
func (p *EnvProvider) Close() error { return nil }
