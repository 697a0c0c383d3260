package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/redis"
)

const redisKeyPrefix = "retrieval:"

// RedisStore maps an entry to the key retrieval:<stage>:<fingerprint>. A
// SET replaces the value atomically.
type RedisStore struct {
	client *pkgredis.Client
	ttl    time.Duration
}

func OpenRedisStore(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client, err := pkgredis.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisStore(client, ttl), nil
}

func NewRedisStore(client *pkgredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(stage, fingerprint string) string {
	return redisKeyPrefix + stage + ":" + fingerprint
}

func (s *RedisStore) Get(ctx context.Context, stage, fingerprint string) ([]byte, bool, error) {
	if err := validKey(stage, fingerprint); err != nil {
		return nil, false, err
	}
	data, err := s.client.GetBytes(ctx, redisKey(stage, fingerprint))
	if err != nil {
		if pkgredis.IsNilError(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

func (s *RedisStore) Put(ctx context.Context, stage, fingerprint string, payload []byte) error {
	if err := validKey(stage, fingerprint); err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(stage, fingerprint), payload, s.ttl); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Purge removes every entry of stage and returns how many were deleted.
func (s *RedisStore) Purge(ctx context.Context, stage string) (int64, error) {
	if err := validStage(stage); err != nil {
		return 0, err
	}
	return s.client.FlushByPattern(ctx, redisKeyPrefix+stage+":*")
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Name() string { return config.BackendRedis }
