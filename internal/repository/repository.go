package repository

import (
	"context"
)

// KV is a namespaced key/value store for client-side state. The session
// namespace holds the cart; the durable namespace holds the auth token.
type KV interface {
	// Get returns the value stored under key, or an apperrors.NotFound error
	// when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Namespaces used by the client.
const (
	DurableNamespace = "durable"
	sessionPrefix    = "session:"
)

// SessionNamespace returns the namespace of the given client session.
func SessionNamespace(sessionID string) string {
	return sessionPrefix + sessionID
}
