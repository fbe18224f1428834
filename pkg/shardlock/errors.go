package shardlock

import "errors"

var (
	// ErrEmptyName is returned when a lock name is empty
	ErrEmptyName = errors.New("lock name cannot be empty")

	// ErrAcquireFailed is returned when the backend could not be asked for the lock
	ErrAcquireFailed = errors.New("failed to acquire shard lock")

	// ErrReleaseFailed is returned when the backend could not release the lock
	ErrReleaseFailed = errors.New("failed to release shard lock")

	// ErrLockLost is returned on release when the lock expired and was taken by someone else
	ErrLockLost = errors.New("shard lock lost before release")

	// ErrCheckFailed is returned when lock existence could not be determined
	ErrCheckFailed = errors.New("failed to check shard lock")

	// ErrUnknownBackend is returned for an unsupported lock backend name
	ErrUnknownBackend = errors.New("unknown shard lock backend")

	// ErrBackendUnavailable is returned when the selected backend has no client
	ErrBackendUnavailable = errors.New("shard lock backend unavailable")
)
