package shardlock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries the holder's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DefaultRedisTTL is the lock lifetime used when none is configured
const DefaultRedisTTL = 5 * time.Minute

// RedisLocker implements Locker with expiring redis keys
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisLocker creates a redis backed locker. Locks expire after ttl even if
// never released.
func NewRedisLocker(client redis.UniversalClient, ttl time.Duration, prefix string) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultRedisTTL
	}
	return &RedisLocker{client: client, ttl: ttl, prefix: prefix}
}

// TryAcquire implements Locker
func (l *RedisLocker) TryAcquire(ctx context.Context, name string) (Lock, bool, error) {
	if name == "" {
		return nil, false, ErrEmptyName
	}

	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, errors.Join(ErrAcquireFailed, err)
	}
	if !ok {
		return nil, false, nil
	}

	return &redisLock{client: l.client, name: name, key: key, token: token}, true, nil
}

// Exists implements Locker
func (l *RedisLocker) Exists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, ErrEmptyName
	}

	n, err := l.client.Exists(ctx, l.prefix+name).Result()
	if err != nil {
		return false, errors.Join(ErrCheckFailed, err)
	}
	return n > 0, nil
}

type redisLock struct {
	client redis.UniversalClient
	name   string
	key    string
	token  string
	once   sync.Once
}

func (r *redisLock) Name() string {
	return r.name
}

func (r *redisLock) Release(ctx context.Context) error {
	var err error
	r.once.Do(func() {
		n, rerr := releaseScript.Run(ctx, r.client, []string{r.key}, r.token).Int()
		if rerr != nil {
			err = errors.Join(ErrReleaseFailed, rerr)
			return
		}
		if n == 0 {
			err = ErrLockLost
		}
	})
	return err
}
