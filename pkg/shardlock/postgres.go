package shardlock

import (
	"context"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLocker implements Locker with PostgreSQL session-level advisory locks.
// Every held lock pins one pool connection until it is released.
type PostgresLocker struct {
	pool *pgxpool.Pool
}

// NewPostgresLocker creates an advisory-lock backed locker
func NewPostgresLocker(pool *pgxpool.Pool) *PostgresLocker {
	return &PostgresLocker{pool: pool}
}

// Key maps a lock name onto the 64-bit advisory lock key space
func Key(name string) int64 {
	return int64(xxhash.Sum64String(name))
}

// splitKey returns the (classid, objid) pair pg_locks reports for a bigint advisory key
func splitKey(key int64) (int64, int64) {
	u := uint64(key)
	return int64(uint32(u >> 32)), int64(uint32(u))
}

// TryAcquire implements Locker
func (l *PostgresLocker) TryAcquire(ctx context.Context, name string) (Lock, bool, error) {
	if name == "" {
		return nil, false, ErrEmptyName
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, errors.Join(ErrAcquireFailed, err)
	}

	key := Key(name)
	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, errors.Join(ErrAcquireFailed, err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	return &postgresLock{name: name, key: key, conn: conn}, true, nil
}

// Exists implements Locker
func (l *PostgresLocker) Exists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, ErrEmptyName
	}

	classID, objID := splitKey(Key(name))

	var exists bool
	err := l.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_locks
			WHERE locktype = 'advisory'
			  AND granted
			  AND objsubid = 1
			  AND database = (SELECT oid FROM pg_database WHERE datname = current_database())
			  AND classid::bigint = $1
			  AND objid::bigint = $2
		)`, classID, objID).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrCheckFailed, err)
	}
	return exists, nil
}

type postgresLock struct {
	name string
	key  int64
	conn *pgxpool.Conn
	once sync.Once
}

func (p *postgresLock) Name() string {
	return p.name
}

// Release unlocks and returns the connection to the pool. If the unlock
// statement fails the connection is closed instead, which ends the session and
// drops the advisory lock with it.
func (p *postgresLock) Release(ctx context.Context) error {
	var err error
	p.once.Do(func() {
		var released bool
		if qerr := p.conn.QueryRow(ctx, "SELECT pg_advisory_unlock($1)", p.key).Scan(&released); qerr != nil {
			raw := p.conn.Hijack()
			_ = raw.Close(context.WithoutCancel(ctx))
			err = errors.Join(ErrReleaseFailed, qerr)
			return
		}
		p.conn.Release()
		if !released {
			err = ErrLockLost
		}
	})
	return err
}
