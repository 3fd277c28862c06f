package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxScopeLength is the maximum allowed length for a key scope.
const MaxScopeLength = 128

// Sentinel errors for key generation.
var (
	ErrInvalidScope = errors.New("cache: scope is invalid")
	ErrScopeTooLong = errors.New("cache: scope exceeds max length")
)

// Keyer generates deterministic cache keys from request payloads.
//
// Contract:
// - Determinism: the same scope and payload must produce the same key,
//   regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from a scope and a payload.
	Key(scope string, payload any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: cache:<scope>:<hash>
// where hash is the first 16 hex characters of SHA-256 over the payload's
// JSON encoding. encoding/json writes map keys in sorted order and struct
// fields in declaration order, so equal payloads always hash equal.
func (k *DefaultKeyer) Key(scope string, payload any) (string, error) {
	if err := ValidateScope(scope); err != nil {
		return "", err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("cache: failed to serialize payload: %w", err)
	}

	hash := sha256.Sum256(body)
	return fmt.Sprintf("cache:%s:%s", scope, hex.EncodeToString(hash[:8])), nil
}

// ValidateScope checks that a scope is usable inside a cache key.
func ValidateScope(scope string) error {
	if scope == "" || strings.TrimSpace(scope) == "" {
		return ErrInvalidScope
	}
	if len(scope) > MaxScopeLength {
		return ErrScopeTooLong
	}
	// Reject scopes with newlines or carriage returns
	if strings.ContainsAny(scope, "\n\r") {
		return ErrInvalidScope
	}
	return nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
