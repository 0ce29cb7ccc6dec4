package domain

import (
	"context"
	"time"
)

// Identity is the caller as resolved by the identity provider.
// ID is the stable provider key and doubles as the Profile ID.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

type IdentityVerifier interface {
	// Verify resolves a bearer token. Invalid or expired tokens yield an error wrapping ErrUnauthenticated.
	Verify(ctx context.Context, token string) (*Identity, error)
}
