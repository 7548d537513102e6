package auth

import (
	"context"
	"time"

	"complaintdesk/internal/cache"
)

const revokedTokenKeyPrefix = "revoked:access_token:"

// RevocationList remembers logged-out tokens until they would expire anyway.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// TokenRevocations keeps revoked token IDs in Redis.
type TokenRevocations struct {
	cache *cache.Client
}

var _ RevocationList = (*TokenRevocations)(nil)

// NewTokenRevocations creates a revocation list. A nil cache makes every
// lookup report "not revoked".
func NewTokenRevocations(cache *cache.Client) *TokenRevocations {
	return &TokenRevocations{cache: cache}
}

// Revoke marks tokenID as revoked for ttl.
func (r *TokenRevocations) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.cache.Set(ctx, revokedTokenKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked checks if an access token was revoked.
func (r *TokenRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	data, err := r.cache.Get(ctx, revokedTokenKeyPrefix+tokenID)
	if err != nil {
		return false, nil // Not revoked if error (fail safe)
	}
	return data != nil, nil
}
