package store

import (
	"context"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// The redis store keeps per-server access tokens under
// `/<prefix>/tokens/<server>`, so tokens survive process restarts.

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed token store.
func NewRedisStore(client *redis.Client, prefix string) TokenStore {
	return &redisStore{
		client: client,
		prefix: prefix,
	}
}

func (m *redisStore) key(server string) string {
	return path.Join(m.prefix, "tokens", server)
}

func (m *redisStore) Token(ctx context.Context, server string) (string, error) {
	token, err := m.client.Get(ctx, m.key(server)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", errors.Wrap(err, "failed to get token from Redis")
	}
	return token, nil
}

func (m *redisStore) SetToken(ctx context.Context, server, token string) error {
	err := m.client.Set(ctx, m.key(server), token, 0).Err()
	if err != nil {
		return errors.Wrap(err, "failed to store token in Redis")
	}
	return nil
}

func (m *redisStore) DeleteToken(ctx context.Context, server string) error {
	err := m.client.Del(ctx, m.key(server)).Err()
	if err != nil {
		return errors.Wrap(err, "failed to delete token from Redis")
	}
	return nil
}
