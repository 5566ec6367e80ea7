package state

import (
	"context"
	"time"

	"gatekeeper/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore shares states between instances. Keys expire on their own.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a state store on top of an existing redis client
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

var _ service.StateStore = (*RedisStore)(nil)

func (s *RedisStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(state), 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save oauth state")
	}

	return nil
}

// Consume uses GETDEL so concurrent callbacks cannot both accept one state.
func (s *RedisStore) Consume(ctx context.Context, state string) (bool, error) {
	err := s.client.GetDel(ctx, s.key(state)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to consume oauth state")
	}

	return true, nil
}

func (s *RedisStore) key(state string) string {
	return s.prefix + state
}
