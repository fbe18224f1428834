// Package shardlock provides named, non-blocking mutual exclusion used to
// guarantee that at most one worker processes a shard at any instant.
//
// A Locker hands out Lock values through TryAcquire, which never waits: when
// the name is already held it reports ok == false and the caller skips the
// shard. Exists is a best-effort probe meant for skipping obviously busy shards
// and for logging lock contention.
//
// Three backends are available:
//
//   - MemoryLocker: a mutex-guarded map for tests and single-node setups
//   - PostgresLocker: session-level advisory locks (pg_try_advisory_lock) held
//     on a dedicated pool connection; released automatically when the session
//     ends, so a crashed process never leaves an orphaned lock behind
//   - RedisLocker: SET NX PX with a random token and a compare-and-delete
//     release; the TTL bounds how long a crashed holder can block a shard
//
// # Usage
//
//	locker := shardlock.NewPostgresLocker(pool)
//
//	lock, ok, err := locker.TryAcquire(ctx, "message-42")
//	if err != nil || !ok {
//		return err // busy: try again later
//	}
//	defer lock.Release(context.WithoutCancel(ctx))
package shardlock
