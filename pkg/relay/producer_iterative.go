package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/hookrelay/pkg/logger"
)

// IterativeProducer walks every pending message in id order and enqueues the
// distinct shards of each page. It suits very large shard counts but has no
// freshness bias.
type IterativeProducer struct {
	scanner     ShardScanner
	batchSize   int
	noWorkDelay time.Duration
	logger      *slog.Logger
}

// NewIterativeProducer creates a producer that scans pending messages in batches
func NewIterativeProducer(scanner ShardScanner, opts ...ProducerOption) (*IterativeProducer, error) {
	if scanner == nil {
		return nil, ErrRepositoryNil
	}

	options := defaultProducerOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &IterativeProducer{
		scanner:     scanner,
		batchSize:   options.batchSize,
		noWorkDelay: options.noWorkDelay,
		logger:      options.logger.With(logger.Component("iterative_producer")),
	}, nil
}

// Produce implements Producer.
// The scan is bounded by the newest pending id seen at the start, so messages
// arriving mid-scan wait for the next cycle instead of extending this one.
func (p *IterativeProducer) Produce(ctx context.Context, out chan<- ShardID) error {
	maxID, err := p.scanner.NewestPendingID(ctx)
	if errors.Is(err, ErrMessageNotFound) {
		p.logger.DebugContext(ctx, "no pending messages, producer is going to sleep",
			slog.Duration("delay", p.noWorkDelay))
		return sleepContext(ctx, p.noWorkDelay)
	}
	if err != nil {
		return fmt.Errorf("failed to find newest pending message: %w", err)
	}

	var afterID int64
	for {
		refs, err := p.scanner.ScanPending(ctx, afterID, maxID, p.batchSize)
		if err != nil {
			return fmt.Errorf("failed to scan pending messages after %d: %w", afterID, err)
		}
		if len(refs) == 0 {
			return nil
		}

		shards := distinctShards(refs)
		p.logger.DebugContext(ctx, "found shards to produce",
			slog.Int("count", len(shards)),
			slog.Int64("after_id", afterID))

		for _, shard := range shards {
			if err := enqueue(ctx, out, shard); err != nil {
				return err
			}
		}

		afterID = refs[len(refs)-1].ID
		if len(refs) < p.batchSize || afterID >= maxID {
			return nil
		}
	}
}

// distinctShards returns the shards of refs in first-seen order
func distinctShards(refs []PendingRef) []ShardID {
	seen := make(map[ShardID]struct{}, len(refs))
	shards := make([]ShardID, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ShardID]; ok {
			continue
		}
		seen[ref.ShardID] = struct{}{}
		shards = append(shards, ref.ShardID)
	}
	return shards
}
