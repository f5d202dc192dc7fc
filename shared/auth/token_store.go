package auth

import (
	"context"
	"time"

	"github.com/vasapolrittideah/portfolio-api/shared/cache"
)

const revokedAccessTokenKeyPrefix = "blacklist:access_token:"

// TokenBlacklist tracks access tokens that were revoked before they expired.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps revoked access token IDs in Redis until they expire.
type TokenStore struct {
	cache *cache.Client
}

var _ TokenBlacklist = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// Revoke blacklists an access token for the remainder of its lifetime.
func (s *TokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedAccessTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked reports whether an access token was blacklisted. A cache outage
// reads as "not revoked".
func (s *TokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedAccessTokenKeyPrefix+tokenID)
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}
