package secret

import "context"

// Provider resolves secrets by reference string. The ref format is
// provider-specific: an env var name for EnvProvider, a relative path
// for FileProvider.
//
// Implementations must be safe for concurrent use and must not log
// secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}
