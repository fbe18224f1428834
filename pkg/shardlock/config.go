package shardlock

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Config.Backend
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config selects and tunes the lock backend
type Config struct {
	Backend     string        `env:"SHARD_LOCK_BACKEND" envDefault:"postgres"`          // Backend is one of postgres, redis or memory.
	TTL         time.Duration `env:"SHARD_LOCK_TTL" envDefault:"5m"`                    // TTL bounds how long a redis lock survives a crashed holder.
	RedisPrefix string        `env:"SHARD_LOCK_REDIS_PREFIX" envDefault:"hookrelay:lock:"` // RedisPrefix namespaces lock keys in redis.
}

// New builds the locker selected by cfg.Backend. The pool is required for the
// postgres backend and the client for the redis backend.
func New(cfg Config, pool *pgxpool.Pool, client redis.UniversalClient) (Locker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendPostgres, "":
		if pool == nil {
			return nil, fmt.Errorf("%w: postgres backend requires a connection pool", ErrBackendUnavailable)
		}
		return NewPostgresLocker(pool), nil
	case BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("%w: redis backend requires a client", ErrBackendUnavailable)
		}
		return NewRedisLocker(client, cfg.TTL, cfg.RedisPrefix), nil
	case BackendMemory:
		return NewMemoryLocker(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
