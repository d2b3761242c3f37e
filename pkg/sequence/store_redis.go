package sequence

import (
	"context"

	"github.com/redis/go-redis/v9"

	"cardlink-engine/pkg/rediskey"
)

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) RetrieveNextValue(ctx context.Context, name string) (int64, error) {
	return s.step(ctx, name, func(key string) *redis.IntCmd {
		return s.rdb.Incr(ctx, key)
	})
}

func (s *RedisStore) DecrementSequenceValue(ctx context.Context, name string) (int64, error) {
	return s.step(ctx, name, func(key string) *redis.IntCmd {
		return s.rdb.Decr(ctx, key)
	})
}

func (s *RedisStore) step(ctx context.Context, name string, op func(string) *redis.IntCmd) (int64, error) {
	key := rediskey.BuildSequenceKey(name)

	// INCR would silently create the key; sequences must be provisioned first.
	exists, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return Missing, err
	}
	if exists == 0 {
		return Missing, nil
	}

	value, err := op(key).Result()
	if err != nil {
		return Missing, err
	}
	return value, nil
}

func (s *RedisStore) EnsureSequence(ctx context.Context, name string, initial int64) error {
	return s.rdb.SetNX(ctx, rediskey.BuildSequenceKey(name), initial, 0).Err()
}
