package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/hookrelay/pkg/logger"
)

// UnprocessedShardsProducer enqueues only shards whose oldest pending message
// is past its backoff window and whose lock is free. Shards that never failed
// come first, then the ones that failed longest ago.
type UnprocessedShardsProducer struct {
	finder      EligibleShardFinder
	locks       LockInspector
	policy      RetryPolicy
	noWorkDelay time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewUnprocessedShardsProducer creates a producer that skips locked and backing-off shards
func NewUnprocessedShardsProducer(finder EligibleShardFinder, locks LockInspector, policy RetryPolicy, opts ...ProducerOption) (*UnprocessedShardsProducer, error) {
	if finder == nil {
		return nil, ErrRepositoryNil
	}
	if locks == nil {
		return nil, ErrLockerNil
	}

	options := defaultProducerOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &UnprocessedShardsProducer{
		finder:      finder,
		locks:       locks,
		policy:      policy,
		noWorkDelay: options.noWorkDelay,
		logger:      options.logger.With(logger.Component("unprocessed_shards_producer")),
		now:         options.now,
	}, nil
}

// Produce implements Producer
func (p *UnprocessedShardsProducer) Produce(ctx context.Context, out chan<- ShardID) error {
	shards, err := p.Shards(ctx)
	if err != nil {
		return err
	}

	if len(shards) == 0 {
		p.logger.DebugContext(ctx, "all shards are processing, producer is going to sleep",
			slog.Duration("delay", p.noWorkDelay))
		return sleepContext(ctx, p.noWorkDelay)
	}

	for _, shard := range shards {
		if err := enqueue(ctx, out, shard); err != nil {
			return err
		}
	}
	return nil
}

// Shards returns the ordered set of eligible shards nobody is working on.
// Calling it twice against an unchanged store yields the same result.
func (p *UnprocessedShardsProducer) Shards(ctx context.Context) ([]ShardID, error) {
	eligible, err := p.finder.EligibleShards(ctx, p.policy, p.now())
	if err != nil {
		return nil, fmt.Errorf("failed to find eligible shards: %w", err)
	}

	shards := make([]ShardID, 0, len(eligible))
	for _, shard := range eligible {
		locked, err := p.locks.Exists(ctx, shard.LockName())
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrFailedToLockShard, shard, err)
		}
		if locked {
			continue
		}
		shards = append(shards, shard)
	}
	return shards, nil
}
