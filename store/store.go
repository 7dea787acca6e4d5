package store

import (
	"context"
)

// TokenStore persists per-server access tokens. The identity flow
// that obtains the tokens is external; the store only holds opaque
// bearer tokens it is handed.
type TokenStore interface {
	// Token returns the stored token for a server, empty when absent.
	Token(ctx context.Context, server string) (string, error)
	// SetToken stores or replaces the token for a server.
	SetToken(ctx context.Context, server, token string) error
	// DeleteToken removes the token for a server.
	DeleteToken(ctx context.Context, server string) error
}
