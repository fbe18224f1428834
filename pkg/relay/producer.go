package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Producer discovers shards with eligible work and pushes them onto out.
// Produce must return once a cycle is done; when nothing is eligible it sleeps
// the configured no-work delay first. Sends respect ctx cancellation.
type Producer interface {
	Produce(ctx context.Context, out chan<- ShardID) error
}

// LockInspector reports whether a named shard lock is currently held
type LockInspector interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// ProducerOption is a functional option for configuring producers
type ProducerOption func(*producerOptions)

type producerOptions struct {
	noWorkDelay time.Duration
	batchSize   int
	logger      *slog.Logger
	now         func() time.Time
}

func defaultProducerOptions() *producerOptions {
	return &producerOptions{
		noWorkDelay: time.Second,
		batchSize:   1000,
		logger:      slog.Default(),
		now:         time.Now,
	}
}

// WithNoWorkDelay sets how long a producer sleeps when no shard is eligible
func WithNoWorkDelay(d time.Duration) ProducerOption {
	return func(o *producerOptions) {
		if d >= 0 {
			o.noWorkDelay = d
		}
	}
}

// WithBatchSize sets the page size of the iterative scan
func WithBatchSize(n int) ProducerOption {
	return func(o *producerOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithProducerLogger sets the logger for the producer
func WithProducerLogger(logger *slog.Logger) ProducerOption {
	return func(o *producerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProducerClock overrides the time source used for eligibility checks
func WithProducerClock(now func() time.Time) ProducerOption {
	return func(o *producerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewProducer builds the producer strategy registered under name.
// Accepted names are ProducerIterative and ProducerUnprocessedShards.
func NewProducer(name string, store Store, locks LockInspector, policy RetryPolicy, opts ...ProducerOption) (Producer, error) {
	switch name {
	case ProducerIterative, "":
		return NewIterativeProducer(store, opts...)
	case ProducerUnprocessedShards:
		return NewUnprocessedShardsProducer(store, locks, policy, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProducer, name)
	}
}

// enqueue blocks until out accepts shard or ctx is done
func enqueue(ctx context.Context, out chan<- ShardID, shard ShardID) error {
	select {
	case out <- shard:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sleepContext waits for d or until ctx is done, returning ctx's error in the latter case
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
