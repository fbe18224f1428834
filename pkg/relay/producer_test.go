package relay_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hookrelay/pkg/relay"
	"github.com/dmitrymomot/hookrelay/pkg/shardlock"
)

// MockShardScanner is a mock implementation of ShardScanner
type MockShardScanner struct {
	mock.Mock
}

func (m *MockShardScanner) NewestPendingID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShardScanner) ScanPending(ctx context.Context, afterID, maxID int64, limit int) ([]relay.PendingRef, error) {
	args := m.Called(ctx, afterID, maxID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]relay.PendingRef), args.Error(1)
}

func drain(ch chan relay.ShardID) []relay.ShardID {
	var out []relay.ShardID
	for {
		select {
		case s := <-ch:
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestNewProducer(t *testing.T) {
	t.Parallel()

	store := relay.NewMemoryStore()
	locker := shardlock.NewMemoryLocker()

	p, err := relay.NewProducer(relay.ProducerIterative, store, locker, relay.RetryPolicy{})
	require.NoError(t, err)
	assert.IsType(t, &relay.IterativeProducer{}, p)

	p, err = relay.NewProducer(relay.ProducerUnprocessedShards, store, locker, relay.RetryPolicy{})
	require.NoError(t, err)
	assert.IsType(t, &relay.UnprocessedShardsProducer{}, p)

	_, err = relay.NewProducer("random", store, locker, relay.RetryPolicy{})
	assert.ErrorIs(t, err, relay.ErrUnknownProducer)

	_, err = relay.NewIterativeProducer(nil)
	assert.ErrorIs(t, err, relay.ErrRepositoryNil)

	_, err = relay.NewUnprocessedShardsProducer(store, nil, relay.RetryPolicy{})
	assert.ErrorIs(t, err, relay.ErrLockerNil)
}

func TestIterativeProducer_Produce(t *testing.T) {
	t.Parallel()

	t.Run("enqueues distinct shards batch by batch", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := relay.NewMemoryStore()
		seed(t, store,
			pending(1, relay.Shard("a")),
			pending(2, relay.Shard("a")),
			pending(3, relay.Shard("b")),
			pending(4, relay.Shard("a")),
			pending(5, relay.NullShard()),
		)

		p, err := relay.NewIterativeProducer(store, relay.WithBatchSize(2))
		require.NoError(t, err)

		out := make(chan relay.ShardID, 10)
		require.NoError(t, p.Produce(ctx, out))

		// batches [1,2] [3,4] [5] dedupe within a batch only
		assert.Equal(t, []relay.ShardID{
			relay.Shard("a"),
			relay.Shard("b"), relay.Shard("a"),
			relay.NullShard(),
		}, drain(out))
	})

	t.Run("scan is bounded by the newest pending id", func(t *testing.T) {
		t.Parallel()

		scanner := &MockShardScanner{}
		scanner.On("NewestPendingID", mock.Anything).Return(int64(3), nil).Once()
		scanner.On("ScanPending", mock.Anything, int64(0), int64(3), 2).
			Return([]relay.PendingRef{{ID: 1, ShardID: relay.Shard("a")}, {ID: 2, ShardID: relay.Shard("b")}}, nil).Once()
		scanner.On("ScanPending", mock.Anything, int64(2), int64(3), 2).
			Return([]relay.PendingRef{{ID: 3, ShardID: relay.Shard("c")}}, nil).Once()

		p, err := relay.NewIterativeProducer(scanner, relay.WithBatchSize(2))
		require.NoError(t, err)

		out := make(chan relay.ShardID, 10)
		require.NoError(t, p.Produce(context.Background(), out))
		assert.Equal(t, []relay.ShardID{relay.Shard("a"), relay.Shard("b"), relay.Shard("c")}, drain(out))
		scanner.AssertExpectations(t)
	})

	t.Run("first batch is consumable before the scan finishes", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := relay.NewMemoryStore()
		for i := int64(1); i <= 50; i++ {
			seed(t, store, pending(i, relay.Shard(fmt.Sprintf("shard-%d", i))))
		}

		p, err := relay.NewIterativeProducer(store, relay.WithBatchSize(5))
		require.NoError(t, err)

		out := make(chan relay.ShardID, 1)
		done := make(chan error, 1)
		go func() { done <- p.Produce(ctx, out) }()

		select {
		case <-out:
		case <-time.After(time.Second):
			t.Fatal("first shard was not produced")
		}

		received := 1
		for received < 50 {
			select {
			case <-out:
				received++
			case <-time.After(time.Second):
				t.Fatalf("producer stalled after %d shards", received)
			}
		}
		require.NoError(t, <-done)
	})

	t.Run("sleeps when nothing is pending", func(t *testing.T) {
		t.Parallel()

		p, err := relay.NewIterativeProducer(relay.NewMemoryStore(), relay.WithNoWorkDelay(30*time.Millisecond))
		require.NoError(t, err)

		start := time.Now()
		require.NoError(t, p.Produce(context.Background(), make(chan relay.ShardID, 1)))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("scan error is returned", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("connection reset")
		scanner := &MockShardScanner{}
		scanner.On("NewestPendingID", mock.Anything).Return(int64(0), boom).Once()

		p, err := relay.NewIterativeProducer(scanner)
		require.NoError(t, err)
		assert.ErrorIs(t, p.Produce(context.Background(), make(chan relay.ShardID, 1)), boom)
	})

	t.Run("blocked send stops on cancellation", func(t *testing.T) {
		t.Parallel()

		store := relay.NewMemoryStore()
		seed(t, store, pending(1, relay.Shard("a")), pending(2, relay.Shard("b")))

		p, err := relay.NewIterativeProducer(store)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		out := make(chan relay.ShardID) // nobody reads
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()
		assert.ErrorIs(t, p.Produce(ctx, out), context.Canceled)
	})
}

func TestUnprocessedShardsProducer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := relay.RetryPolicy{FailureDelay: 10 * time.Second, ExponentBase: 2}
	clock := func() time.Time { return now }

	newStore := func(t *testing.T) *relay.MemoryStore {
		store := relay.NewMemoryStore()
		failedAt := now.Add(-time.Hour)
		failed := pending(1, relay.Shard("failed"))
		failed.ProcessedCount, failed.LastFailedAt = 2, &failedAt

		waitAt := now.Add(-time.Second)
		waiting := pending(2, relay.Shard("waiting"))
		waiting.ProcessedCount, waiting.LastFailedAt = 1, &waitAt

		seed(t, store, failed, waiting,
			pending(3, relay.Shard("busy")),
			pending(4, relay.Shard("fresh")),
			pending(5, relay.Shard("fresh")),
		)
		return store
	}

	t.Run("skips locked and backing-off shards", func(t *testing.T) {
		t.Parallel()

		store := newStore(t)
		locker := shardlock.NewMemoryLocker()
		lock, ok, err := locker.TryAcquire(ctx, relay.Shard("busy").LockName())
		require.NoError(t, err)
		require.True(t, ok)
		defer func() { _ = lock.Release(ctx) }()

		p, err := relay.NewUnprocessedShardsProducer(store, locker, policy, relay.WithProducerClock(clock))
		require.NoError(t, err)

		out := make(chan relay.ShardID, 10)
		require.NoError(t, p.Produce(ctx, out))
		assert.Equal(t, []relay.ShardID{relay.Shard("fresh"), relay.Shard("failed")}, drain(out))
	})

	t.Run("is idempotent for unchanged state", func(t *testing.T) {
		t.Parallel()

		p, err := relay.NewUnprocessedShardsProducer(newStore(t), shardlock.NewMemoryLocker(), policy, relay.WithProducerClock(clock))
		require.NoError(t, err)

		first, err := p.Shards(ctx)
		require.NoError(t, err)
		for range 5 {
			again, err := p.Shards(ctx)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
		assert.Equal(t, []relay.ShardID{relay.Shard("busy"), relay.Shard("fresh"), relay.Shard("failed")}, first)
	})

	t.Run("sleeps when every shard is busy", func(t *testing.T) {
		t.Parallel()

		store := relay.NewMemoryStore()
		seed(t, store, pending(1, relay.Shard("only")))
		locker := shardlock.NewMemoryLocker()
		lock, _, err := locker.TryAcquire(ctx, relay.Shard("only").LockName())
		require.NoError(t, err)
		defer func() { _ = lock.Release(ctx) }()

		p, err := relay.NewUnprocessedShardsProducer(store, locker, policy,
			relay.WithProducerClock(clock), relay.WithNoWorkDelay(30*time.Millisecond))
		require.NoError(t, err)

		out := make(chan relay.ShardID, 1)
		start := time.Now()
		require.NoError(t, p.Produce(ctx, out))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
		assert.Empty(t, drain(out))
	})
}
