package shardlock

import (
	"context"
	"sync"
)

// MemoryLocker implements Locker within a single process
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]uint64
	token uint64
}

// NewMemoryLocker creates an in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]uint64)}
}

// TryAcquire implements Locker
func (l *MemoryLocker) TryAcquire(ctx context.Context, name string) (Lock, bool, error) {
	if name == "" {
		return nil, false, ErrEmptyName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[name]; busy {
		return nil, false, nil
	}
	l.token++
	l.held[name] = l.token

	return &memoryLock{locker: l, name: name, token: l.token}, true, nil
}

// Exists implements Locker
func (l *MemoryLocker) Exists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, ErrEmptyName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, busy := l.held[name]
	return busy, nil
}

// Held returns the number of locks currently held
func (l *MemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

type memoryLock struct {
	locker *MemoryLocker
	name   string
	token  uint64
	once   sync.Once
}

func (m *memoryLock) Name() string {
	return m.name
}

func (m *memoryLock) Release(ctx context.Context) error {
	m.once.Do(func() {
		m.locker.mu.Lock()
		defer m.locker.mu.Unlock()

		if m.locker.held[m.name] == m.token {
			delete(m.locker.held, m.name)
		}
	})
	return nil
}
