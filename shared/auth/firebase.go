package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/dfryer1193/blogsphere/blog/domain"
	"google.golang.org/api/option"
)

type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
	StorageBucket   string
}

// NewFirebaseApp initializes the Firebase app shared by identity verification and image storage.
// Without a credentials file the SDK falls back to application default credentials or the auth emulator.
func NewFirebaseApp(ctx context.Context, cfg FirebaseConfig) (*firebase.App, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("firebase credentials %q not readable: %w", cfg.CredentialsFile, err)
		}
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     cfg.ProjectID,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}

	return app, nil
}

// idTokenVerifier is the part of *fbauth.Client used here
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

var _ domain.IdentityVerifier = (*FirebaseVerifier)(nil)

// FirebaseVerifier resolves Firebase ID tokens
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token: %w", domain.ErrUnauthenticated)
	}

	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		if fbauth.IsIDTokenExpired(err) {
			return nil, fmt.Errorf("token expired: %w", domain.ErrUnauthenticated)
		}
		if fbauth.IsIDTokenInvalid(err) {
			return nil, fmt.Errorf("token invalid: %w", domain.ErrUnauthenticated)
		}
		// every other failure still leaves the caller unauthenticated
		return nil, fmt.Errorf("token verification failed: %v: %w", err, domain.ErrUnauthenticated)
	}

	identity := &domain.Identity{
		ID:        tok.UID,
		ExpiresAt: time.Unix(tok.Expires, 0).UTC(),
	}
	if email, ok := tok.Claims["email"].(string); ok {
		identity.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		identity.Name = name
	}

	return identity, nil
}
