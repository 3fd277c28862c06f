package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider resolves secrets from files under a base directory.
// The ref is a path relative to Dir, e.g. "secretref:file:github/app.pem".
// Trailing whitespace is trimmed so newline-terminated files resolve cleanly.
type FileProvider struct {
	dir string
}

var _ Provider = (*FileProvider)(nil)

// NewFileProvider creates a file provider rooted at dir.
func NewFileProvider(dir string) (*FileProvider, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("file: base directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("file: resolve base directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("file: base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("file: %q is not a directory", abs)
	}
	return &FileProvider{dir: abs}, nil
}

// Name returns the provider name used in secret references.
func (p *FileProvider) Name() string { return "file" }

// Resolve reads the file at ref relative to the base directory.
// Refs that escape the base directory are rejected.
func (p *FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("file: ref is required")
	}
	if filepath.IsAbs(ref) {
		return "", fmt.Errorf("file: ref %q must be relative", ref)
	}

	path := filepath.Join(p.dir, filepath.Clean(ref))
	rel, err := filepath.Rel(p.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file: ref %q escapes base directory", ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("file: read secret %q: %w", ref, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// Close is a no-op.
func (p *FileProvider) Close() error { return nil }
