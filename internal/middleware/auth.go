package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const identityKey = "identity"

// ProfileProvisioner creates the caller's profile on first sight
type ProfileProvisioner interface {
	EnsureProfile(ctx context.Context, identity *domain.Identity) (*domain.Profile, error)
}

type Authenticator struct {
	verifier domain.IdentityVerifier
	profiles ProfileProvisioner
}

func NewAuthenticator(verifier domain.IdentityVerifier, profiles ProfileProvisioner) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		profiles: profiles,
	}
}

// IdentityFrom returns the identity resolved for the request, if any
func IdentityFrom(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*domain.Identity)
	return identity, ok && identity != nil
}

// RequireAuth rejects requests without a valid bearer token with 401
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}

		identity, err := a.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				log.Error().Err(err).Str("request_id", RequestID(c)).Msg("Identity verification failed")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		a.attach(c, identity)
		c.Next()
	}
}

// OptionalAuth resolves a bearer token when present. Requests without a usable token continue anonymously.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if ok {
			identity, err := a.verifier.Verify(c.Request.Context(), token)
			if err == nil {
				a.attach(c, identity)
			} else {
				log.Debug().Err(err).Str("request_id", RequestID(c)).Msg("Ignoring unusable token")
			}
		}
		c.Next()
	}
}

func (a *Authenticator) attach(c *gin.Context, identity *domain.Identity) {
	c.Set(identityKey, identity)

	if a.profiles == nil {
		return
	}
	if _, err := a.profiles.EnsureProfile(c.Request.Context(), identity); err != nil {
		log.Warn().Err(err).Str("user_id", identity.ID).Str("request_id", RequestID(c)).Msg("Failed to provision profile")
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
