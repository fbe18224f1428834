package relay

import (
	"context"
	"time"
)

// MessageRepository defines the store operations a consumer needs
type MessageRepository interface {
	// CountPending returns the number of messages with NeedsSending set
	CountPending(ctx context.Context) (int64, error)

	// OldestPending returns the pending message with the smallest ID in shard.
	// Returns ErrMessageNotFound when the shard has no pending messages.
	OldestPending(ctx context.Context, shard ShardID) (*Message, error)

	// SaveAttempt persists the delivery fields of msg in a single-row update
	SaveAttempt(ctx context.Context, msg *Message) error
}

// ShardScanner defines the store operations of the iterative producer
type ShardScanner interface {
	// NewestPendingID returns the largest pending message ID.
	// Returns ErrMessageNotFound when nothing is pending.
	NewestPendingID(ctx context.Context) (int64, error)

	// ScanPending returns up to limit pending messages with afterID < ID <= maxID, ordered by ID
	ScanPending(ctx context.Context, afterID, maxID int64, limit int) ([]PendingRef, error)
}

// EligibleShardFinder defines the store operation of the unprocessed-shards producer
type EligibleShardFinder interface {
	// EligibleShards returns shards whose oldest pending message is outside its backoff
	// window at now. Shards that never failed come first, then ascending LastFailedAt.
	EligibleShards(ctx context.Context, policy RetryPolicy, now time.Time) ([]ShardID, error)
}

// Store is implemented by message stores that serve every producer strategy
type Store interface {
	MessageRepository
	ShardScanner
	EligibleShardFinder
}
