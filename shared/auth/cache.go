package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/blogsphere/blog/domain"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const tokenKeyPrefix = "blogsphere:token:"

// TokenCache stores resolved identities keyed by a token digest
type TokenCache interface {
	Get(ctx context.Context, key string) (*domain.Identity, bool, error)
	Set(ctx context.Context, key string, identity *domain.Identity, ttl time.Duration) error
}

var _ domain.IdentityVerifier = (*CachingVerifier)(nil)

// CachingVerifier remembers successful verifications so repeat requests skip the provider.
// Failures are never cached.
type CachingVerifier struct {
	next  domain.IdentityVerifier
	cache TokenCache
	ttl   time.Duration

	now func() time.Time
}

func NewCachingVerifier(next domain.IdentityVerifier, cache TokenCache, ttl time.Duration) *CachingVerifier {
	return &CachingVerifier{
		next:  next,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (v *CachingVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token: %w", domain.ErrUnauthenticated)
	}

	key := tokenKey(token)

	identity, ok, err := v.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Msg("Token cache read failed")
	} else if ok && (identity.ExpiresAt.IsZero() || v.now().Before(identity.ExpiresAt)) {
		return identity, nil
	}

	identity, err = v.next.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	ttl := v.ttl
	if !identity.ExpiresAt.IsZero() {
		if untilExpiry := identity.ExpiresAt.Sub(v.now()); untilExpiry < ttl {
			ttl = untilExpiry
		}
	}

	if ttl > 0 {
		if err := v.cache.Set(ctx, key, identity, ttl); err != nil {
			log.Warn().Err(err).Msg("Token cache write failed")
		}
	}

	return identity, nil
}

// tokenKey hashes the token so raw credentials never reach the cache
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return tokenKeyPrefix + hex.EncodeToString(sum[:])
}

var _ TokenCache = (*RedisTokenCache)(nil)

type RedisTokenCache struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisTokenCache(cfg RedisConfig) *RedisTokenCache {
	return &RedisTokenCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// Ping checks the redis connection
func (c *RedisTokenCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisTokenCache) Close() error {
	return c.client.Close()
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (*domain.Identity, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read token cache: %w", err)
	}

	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached identity: %w", err)
	}

	return &identity, true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, key string, identity *domain.Identity, ttl time.Duration) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}

	return nil
}
