package relay

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store for testing and single-node development
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[int64]*Message
	ids      []int64 // sorted ascending
	nextID   int64
	now      func() time.Time
}

// NewMemoryStore creates a new in-memory message store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[int64]*Message),
		nextID:   1,
		now:      time.Now,
	}
}

// CreateMessage stores a copy of msg. A zero ID is assigned the next sequence value.
func (ms *MemoryStore) CreateMessage(ctx context.Context, msg *Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if msg.ID == 0 {
		msg.ID = ms.nextID
	}
	if _, exists := ms.messages[msg.ID]; exists {
		return fmt.Errorf("message with ID %d already exists", msg.ID)
	}
	if msg.ID >= ms.nextID {
		ms.nextID = msg.ID + 1
	}

	now := ms.now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	msg.UpdatedAt = now

	ms.messages[msg.ID] = msg.Clone()
	pos, _ := slices.BinarySearch(ms.ids, msg.ID)
	ms.ids = slices.Insert(ms.ids, pos, msg.ID)

	return nil
}

// Message returns a copy of the message with the given ID
func (ms *MemoryStore) Message(ctx context.Context, id int64) (*Message, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	msg, ok := ms.messages[id]
	if !ok {
		return nil, ErrMessageNotFound
	}
	return msg.Clone(), nil
}

// CountPending implements MessageRepository
func (ms *MemoryStore) CountPending(ctx context.Context) (int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var n int64
	for _, msg := range ms.messages {
		if msg.NeedsSending {
			n++
		}
	}
	return n, nil
}

// OldestPending implements MessageRepository
func (ms *MemoryStore) OldestPending(ctx context.Context, shard ShardID) (*Message, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, id := range ms.ids {
		msg := ms.messages[id]
		if msg.NeedsSending && msg.ShardID == shard {
			return msg.Clone(), nil
		}
	}
	return nil, ErrMessageNotFound
}

// SaveAttempt implements MessageRepository
func (ms *MemoryStore) SaveAttempt(ctx context.Context, msg *Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored, ok := ms.messages[msg.ID]
	if !ok {
		return fmt.Errorf("message %d: %w", msg.ID, ErrMessageNotFound)
	}

	c := msg.Clone()
	stored.NeedsSending = c.NeedsSending
	stored.ProcessedCount = c.ProcessedCount
	stored.ProcessedAt = c.ProcessedAt
	stored.LastFailedAt = c.LastFailedAt
	stored.SucceededAt = c.SucceededAt
	stored.ResponseCode = c.ResponseCode
	stored.ResponseBody = c.ResponseBody
	stored.LastFailedMessage = c.LastFailedMessage
	stored.UpdatedAt = ms.now()

	return nil
}

// NewestPendingID implements ShardScanner
func (ms *MemoryStore) NewestPendingID(ctx context.Context) (int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for i := len(ms.ids) - 1; i >= 0; i-- {
		if ms.messages[ms.ids[i]].NeedsSending {
			return ms.ids[i], nil
		}
	}
	return 0, ErrMessageNotFound
}

// ScanPending implements ShardScanner
func (ms *MemoryStore) ScanPending(ctx context.Context, afterID, maxID int64, limit int) ([]PendingRef, error) {
	if limit <= 0 {
		return nil, nil
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	start, _ := slices.BinarySearch(ms.ids, afterID+1)
	refs := make([]PendingRef, 0, min(limit, len(ms.ids)))
	for _, id := range ms.ids[start:] {
		if id > maxID || len(refs) >= limit {
			break
		}
		msg := ms.messages[id]
		if msg.NeedsSending {
			refs = append(refs, PendingRef{ID: id, ShardID: msg.ShardID})
		}
	}
	return refs, nil
}

// EligibleShards implements EligibleShardFinder
func (ms *MemoryStore) EligibleShards(ctx context.Context, policy RetryPolicy, now time.Time) ([]ShardID, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	// Oldest pending message per shard; ids are sorted so the first hit wins
	seen := make(map[ShardID]struct{})
	heads := make([]*Message, 0)
	for _, id := range ms.ids {
		msg := ms.messages[id]
		if !msg.NeedsSending {
			continue
		}
		if _, ok := seen[msg.ShardID]; ok {
			continue
		}
		seen[msg.ShardID] = struct{}{}
		if policy.Eligible(msg, now) {
			heads = append(heads, msg)
		}
	}

	slices.SortStableFunc(heads, compareByLastFailure)

	shards := make([]ShardID, len(heads))
	for i, msg := range heads {
		shards[i] = msg.ShardID
	}
	return shards, nil
}

// compareByLastFailure orders never-failed messages first, then by ascending
// LastFailedAt, then by ID.
func compareByLastFailure(a, b *Message) int {
	switch {
	case a.LastFailedAt == nil && b.LastFailedAt != nil:
		return -1
	case a.LastFailedAt != nil && b.LastFailedAt == nil:
		return 1
	case a.LastFailedAt != nil && b.LastFailedAt != nil:
		if c := a.LastFailedAt.Compare(*b.LastFailedAt); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}
