package shardlock

import "context"

// Lock is a held shard lock.
type Lock interface {
	// Name returns the lock name.
	Name() string

	// Release gives the lock up. Calling Release more than once is a no-op.
	Release(ctx context.Context) error
}

// Locker hands out named, non-blocking locks.
type Locker interface {
	// TryAcquire takes the named lock without waiting.
	// It returns ok == false when the lock is held elsewhere.
	TryAcquire(ctx context.Context, name string) (lock Lock, ok bool, err error)

	// Exists reports whether the named lock is currently held by anyone.
	Exists(ctx context.Context, name string) (bool, error)
}
