package settings

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisSource reads settings from the fields of a Redis hash
type RedisSource struct {
	client redis.UniversalClient
	key    string
}

// NewRedisSource creates a source over the hash stored at key
func NewRedisSource(client redis.UniversalClient, key string) *RedisSource {
	return &RedisSource{client: client, key: key}
}

// Settings implements Source. Field values are returned as strings.
func (s *RedisSource) Settings(ctx context.Context) (map[string]any, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, errors.Join(ErrSourceUnavailable, err)
	}

	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out, nil
}

// Set stores one setting
func (s *RedisSource) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.key, key, value).Err(); err != nil {
		return errors.Join(ErrSourceUnavailable, err)
	}
	return nil
}
