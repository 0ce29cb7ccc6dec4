package auth

import (
	"context"
	"fmt"

	"github.com/dfryer1193/blogsphere/blog/domain"
)

var _ domain.IdentityVerifier = (*StaticVerifier)(nil)

// StaticVerifier resolves tokens from a fixed table. It serves local development and tests.
type StaticVerifier struct {
	tokens map[string]domain.Identity
}

func NewStaticVerifier(tokens map[string]domain.Identity) *StaticVerifier {
	table := make(map[string]domain.Identity, len(tokens))
	for token, identity := range tokens {
		table[token] = identity
	}
	return &StaticVerifier{tokens: table}
}

func (v *StaticVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	identity, ok := v.tokens[token]
	if !ok || token == "" {
		return nil, fmt.Errorf("unknown token: %w", domain.ErrUnauthenticated)
	}
	return &identity, nil
}
