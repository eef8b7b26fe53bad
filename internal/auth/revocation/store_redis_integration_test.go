//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tradepost/internal/auth/revocation"
	"tradepost/pkg/testutil/containers"
)

type RedisStoreIntegrationSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *revocation.RedisStore
}

func TestRedisStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreIntegrationSuite))
}

func (s *RedisStoreIntegrationSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = revocation.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreIntegrationSuite) TestRecordAndCheck() {
	ctx := context.Background()
	token := "tok-" + uuid.NewString()

	revoked, err := s.store.IsRevoked(ctx, token)
	s.Require().NoError(err)
	s.False(revoked)

	err = s.store.Record(ctx, token, time.Now().Add(time.Hour))
	s.Require().NoError(err)

	revoked, err = s.store.IsRevoked(ctx, token)
	s.Require().NoError(err)
	s.True(revoked)

	// A different token stays unaffected.
	revoked, err = s.store.IsRevoked(ctx, "tok-"+uuid.NewString())
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisStoreIntegrationSuite) TestRecordIsIdempotent() {
	ctx := context.Background()
	token := "tok-" + uuid.NewString()

	s.Require().NoError(s.store.Record(ctx, token, time.Now().Add(time.Hour)))
	s.Require().NoError(s.store.Record(ctx, token, time.Now().Add(2*time.Hour)))

	revoked, err := s.store.IsRevoked(ctx, token)
	s.Require().NoError(err)
	s.True(revoked)
}

// TestEntryExpiresWithToken verifies that Redis drops the entry once the
// token's own expiry passes.
func (s *RedisStoreIntegrationSuite) TestEntryExpiresWithToken() {
	ctx := context.Background()
	token := "tok-" + uuid.NewString()

	err := s.store.Record(ctx, token, time.Now().Add(500*time.Millisecond))
	s.Require().NoError(err)

	revoked, err := s.store.IsRevoked(ctx, token)
	s.Require().NoError(err)
	s.True(revoked)

	s.Require().Eventually(func() bool {
		revoked, err := s.store.IsRevoked(ctx, token)
		return err == nil && !revoked
	}, 5*time.Second, 50*time.Millisecond, "entry should expire with the token")
}

func (s *RedisStoreIntegrationSuite) TestExpiredTokenNotRecorded() {
	ctx := context.Background()
	token := "tok-" + uuid.NewString()

	err := s.store.Record(ctx, token, time.Now().Add(-time.Minute))
	s.Require().NoError(err)

	revoked, err := s.store.IsRevoked(ctx, token)
	s.Require().NoError(err)
	s.False(revoked)
}

func (s *RedisStoreIntegrationSuite) TestPurgeExpiredIsNoOp() {
	count, err := s.store.PurgeExpired(context.Background(), time.Now())
	s.Require().NoError(err)
	s.Zero(count)
}
