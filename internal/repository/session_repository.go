package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "anon_session:"

// SessionRepository tracks anonymous session tokens in Redis. A token is
// only honored while its key lives; the TTL mirrors the 7-day expiry of the
// items uploaded under it.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionRepository{client: client, logger: logger}
}

// Register stores a freshly minted token with the given TTL.
func (r *SessionRepository) Register(ctx context.Context, token string, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+token, time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("register session token: %w", err)
	}
	return nil
}

// Known reports whether the token was minted by us and is still live.
// Without Redis every well-formed cookie token is trusted.
func (r *SessionRepository) Known(ctx context.Context, token string) (bool, error) {
	if r.client == nil {
		return true, nil
	}
	count, err := r.client.Exists(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("check session token: %w", err)
	}
	return count > 0, nil
}

// Touch slides the token's TTL forward on reuse.
func (r *SessionRepository) Touch(ctx context.Context, token string, ttl time.Duration) {
	if r.client == nil {
		return
	}
	if err := r.client.Expire(ctx, sessionKeyPrefix+token, ttl).Err(); err != nil {
		r.logger.Warn("failed to refresh session ttl", zap.Error(err))
	}
}
