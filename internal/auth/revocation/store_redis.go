package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for revoked tokens.
	revokedTokenKeyPrefix = "trl:token:"
)

// RedisStore is a Redis-backed revocation list. This is the recommended
// implementation for distributed deployments where multiple instances share
// revocation state. Expiry is delegated to Redis key TTLs, so purging is a
// no-op here.
type RedisStore struct {
	client *redis.Client
	clock  Clock
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisClock sets the clock used to convert absolute expiries into TTLs.
func WithRedisClock(clock Clock) RedisOption {
	return func(s *RedisStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewRedisStore constructs a Redis-backed revocation list.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Record stores the token with a TTL matching its remaining lifetime. SET NX
// keeps the operation idempotent; a token already past its expiry is skipped
// since Redis would reject a non-positive TTL and the codec rejects the token
// anyway.
func (s *RedisStore) Record(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return nil
	}
	ttl := expiresAt.Sub(s.clock())
	if ttl <= 0 {
		return nil
	}
	// Store "1" as a marker; key existence is what matters.
	ok, err := s.client.SetNX(ctx, revokedTokenKeyPrefix+token, "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("record revoked token: %w", err)
	}
	if ok {
		tokensRevoked.Inc()
	}
	return nil
}

// IsRevoked checks key existence. A missing key means not revoked or already
// expired out of the list.
func (s *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if token == "" {
		return false, nil
	}
	_, err := s.client.Get(ctx, revokedTokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return true, nil
}

// PurgeExpired is a no-op: Redis evicts keys when their TTL elapses.
func (s *RedisStore) PurgeExpired(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
