package relay

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrRepositoryNil is returned when a nil repository is provided
	ErrRepositoryNil = errors.New("repository cannot be nil")

	// ErrLockerNil is returned when a nil shard locker is provided
	ErrLockerNil = errors.New("shard locker cannot be nil")

	// ErrClientNil is returned when a nil delivery client is provided
	ErrClientNil = errors.New("delivery client cannot be nil")

	// ErrProducerNil is returned when a nil producer is provided
	ErrProducerNil = errors.New("producer cannot be nil")

	// ErrMessageNotFound is returned when no pending message matches a query
	ErrMessageNotFound = errors.New("message not found")

	// ErrUnknownProducer is returned when a producer name cannot be resolved
	ErrUnknownProducer = errors.New("unknown producer")

	// ErrInvalidEndpoint is returned when the delivery endpoint is not configured
	ErrInvalidEndpoint = errors.New("invalid delivery endpoint")

	// ErrWorkerRunning is returned when Start is called on a running worker
	ErrWorkerRunning = errors.New("worker already started")

	// ErrWorkerNotRunning is returned when Stop is called on a stopped worker
	ErrWorkerNotRunning = errors.New("worker not started")

	// ErrFailedToCountPending is returned when the pending message count cannot be read
	ErrFailedToCountPending = errors.New("failed to count pending messages")

	// ErrFailedToProduce is returned when a producer cycle fails
	ErrFailedToProduce = errors.New("failed to produce work")

	// ErrFailedToLoadMessage is returned when the oldest pending message cannot be loaded
	ErrFailedToLoadMessage = errors.New("failed to load pending message")

	// ErrFailedToSaveAttempt is returned when the delivery attempt cannot be persisted
	ErrFailedToSaveAttempt = errors.New("failed to save delivery attempt")

	// ErrFailedToLockShard is returned when the shard lock cannot be checked or acquired
	ErrFailedToLockShard = errors.New("failed to lock shard")
)

// Kind classifies an error crossing a worker boundary.
type Kind uint8

const (
	// KindRecoverable errors are logged and the affected unit of work is retried later.
	KindRecoverable Kind = iota
	// KindFatal errors terminate the worker.
	KindFatal
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRecoverable:
		return "recoverable"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is an error tagged with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Recoverable tags err as recoverable. A nil err yields nil.
func Recoverable(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindRecoverable, Op: op, Err: err}
}

// Fatal tags err as fatal. A nil err yields nil.
func Fatal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindFatal, Op: op, Err: err}
}

// KindOf returns KindFatal if any tagged error in err's tree is fatal.
// Untagged errors are recoverable.
func KindOf(err error) Kind {
	if hasFatal(err) {
		return KindFatal
	}
	return KindRecoverable
}

// IsFatal reports whether err carries a fatal tag.
func IsFatal(err error) bool {
	return hasFatal(err)
}

func hasFatal(err error) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		if e.Kind == KindFatal {
			return true
		}
		return hasFatal(e.Err)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if hasFatal(inner) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return hasFatal(e.Unwrap())
	default:
		return false
	}
}
