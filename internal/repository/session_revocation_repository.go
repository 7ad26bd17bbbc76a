package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedSessionPrefix = "session:revoked:"

// SessionRevocationRepository records logged-out session ids until they would expire anyway.
type SessionRevocationRepository interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type sessionRevocationRepository struct {
	client redis.Cmdable
}

// NewSessionRevocationRepository returns a Redis-backed revocation list.
func NewSessionRevocationRepository(client redis.Cmdable) SessionRevocationRepository {
	return &sessionRevocationRepository{client: client}
}

func (r *sessionRevocationRepository) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedSessionPrefix+sessionID, "1", ttl).Err()
}

func (r *sessionRevocationRepository) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	err := r.client.Get(ctx, revokedSessionPrefix+sessionID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
