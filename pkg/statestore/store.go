package statestore

import (
	"context"
	"errors"
	"path"
)

// Well-known keys, always relative to the deployment's prefix.
const (
	// KeyInstanceID is the authoritative instance reference: the ID of the
	// instance currently considered the managed VPN endpoint.
	KeyInstanceID = "instance-id"

	// KeyDNSToken is the Cloudflare API token, stored encrypted and
	// decrypted at read time.
	KeyDNSToken = "cloudflare-token"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("statestore: key not found")

// Store is the shared external state both controllers coordinate through.
// Keys are hierarchical strings; implementations scope them under a
// deployment prefix. Put always overwrites; there is no conditional write,
// so concurrent writers race last-write-wins.
type Store interface {
	// Get returns the value at key, decrypted if stored as a secret.
	// Returns ErrNotFound when the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Put writes a plaintext value, overwriting any existing one.
	Put(ctx context.Context, key, value string) error

	// PutSecret writes a value encrypted at rest.
	PutSecret(ctx context.Context, key, value string) error

	// Close releases any underlying resources.
	Close() error
}

// Join scopes key under prefix, normalizing separators.
func Join(prefix, key string) string {
	return path.Join(prefix, key)
}
