package sessions

import (
	"context"
	"errors"
	"time"

	rd "github.com/redis/go-redis/v9"
)

const keyPrefix = "import:session:"

type RedisStore struct {
	client *rd.Client
	ttl    time.Duration
}

func NewRedisStore(client *rd.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func Key(id string) string {
	return keyPrefix + id
}

// Save перезаписывает сессию и продлевает её TTL.
func (s *RedisStore) Save(ctx context.Context, id string, payload []byte) error {
	return s.client.Set(ctx, Key(id), payload, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) ([]byte, error) {
	payload, err := s.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, rd.Nil) {
		return nil, ErrNotFound
	}
	return payload, err
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, Key(id)).Err()
}
