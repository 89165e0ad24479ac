package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"taskmanager/internal/cache"
)

const revokedTokenKeyPrefix = "revoked_token:"

// TokenStoreInterface defines the interface for the revoked-token set.
type TokenStoreInterface interface {
	// Revoke adds token to the set. expiresAt is the token's own expiry;
	// the zero time means the token never expires.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) bool
}

// TokenStore keeps revoked tokens in process memory and, when Redis is
// configured, mirrors them there so they survive restarts and are shared
// between replicas. Entries are never removed from memory.
type TokenStore struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
	cache   *cache.Client
	now     func() time.Time
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store. cache may be nil.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{
		revoked: make(map[string]struct{}),
		cache:   cache,
		now:     time.Now,
	}
}

// Revoke marks the token as invalidated.
func (s *TokenStore) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	digest := tokenDigest(token)

	s.mu.Lock()
	s.revoked[digest] = struct{}{}
	s.mu.Unlock()

	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.now())
		if ttl <= 0 {
			// already expired, nothing left to guard in redis
			return nil
		}
	}
	return s.cache.Set(ctx, revokedTokenKeyPrefix+digest, []byte("1"), ttl)
}

// IsRevoked checks memory first, then Redis.
func (s *TokenStore) IsRevoked(ctx context.Context, token string) bool {
	digest := tokenDigest(token)

	s.mu.RLock()
	_, ok := s.revoked[digest]
	s.mu.RUnlock()
	if ok {
		return true
	}
	return s.cache.Exists(ctx, revokedTokenKeyPrefix+digest)
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
