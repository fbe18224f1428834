package feature

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"
)

// MemoryProvider keeps flags in process memory. It suits single-process
// deployments where flags are flipped by the process itself, for example
// from a signal handler.
type MemoryProvider struct {
	flags map[string]*Flag
	mu    sync.RWMutex
	now   func() time.Time
}

// NewMemoryProvider creates a provider seeded with initialFlags. Nil entries are skipped.
func NewMemoryProvider(initialFlags ...*Flag) (*MemoryProvider, error) {
	m := &MemoryProvider{
		flags: make(map[string]*Flag),
		now:   time.Now,
	}

	for _, flag := range initialFlags {
		if flag == nil {
			continue
		}
		if flag.Name == "" {
			return nil, errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
		}
		c := cloneFlag(flag)
		if c.CreatedAt.IsZero() {
			c.CreatedAt = m.now()
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = c.CreatedAt
		}
		m.flags[flag.Name] = c
	}

	return m, nil
}

// IsEnabled implements Provider. A disabled flag is off regardless of its strategy.
func (m *MemoryProvider) IsEnabled(ctx context.Context, flagName string) (bool, error) {
	m.mu.RLock()
	flag, exists := m.flags[flagName]
	var enabled bool
	var strategy Strategy
	if exists {
		enabled, strategy = flag.Enabled, flag.Strategy
	}
	m.mu.RUnlock()

	if !exists {
		return false, ErrFlagNotFound
	}
	if !enabled {
		return false, nil
	}
	if strategy == nil {
		return true, nil
	}
	return strategy.Evaluate(ctx)
}

// GetFlag implements Provider
func (m *MemoryProvider) GetFlag(_ context.Context, flagName string) (*Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[flagName]
	if !exists {
		return nil, ErrFlagNotFound
	}
	return cloneFlag(flag), nil
}

// ListFlags implements Provider. With tags, flags carrying any of them are returned.
func (m *MemoryProvider) ListFlags(_ context.Context, tags ...string) ([]*Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Flag, 0, len(m.flags))
	for _, flag := range m.flags {
		if len(tags) > 0 && !slices.ContainsFunc(tags, func(tag string) bool {
			return slices.Contains(flag.Tags, tag)
		}) {
			continue
		}
		result = append(result, cloneFlag(flag))
	}
	return result, nil
}

// CreateFlag implements Provider
func (m *MemoryProvider) CreateFlag(_ context.Context, flag *Flag) error {
	if err := validateFlag(flag); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[flag.Name]; exists {
		return errors.Join(ErrInvalidFlag, errors.New("flag already exists"))
	}

	now := m.now()
	flag.CreatedAt = now
	flag.UpdatedAt = now
	m.flags[flag.Name] = cloneFlag(flag)
	return nil
}

// UpdateFlag implements Provider
func (m *MemoryProvider) UpdateFlag(_ context.Context, flag *Flag) error {
	if err := validateFlag(flag); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.flags[flag.Name]
	if !exists {
		return ErrFlagNotFound
	}

	flag.CreatedAt = existing.CreatedAt
	flag.UpdatedAt = m.now()
	m.flags[flag.Name] = cloneFlag(flag)
	return nil
}

// SetEnabled flips the Enabled field of an existing flag, keeping its strategy.
func (m *MemoryProvider) SetEnabled(_ context.Context, flagName string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.flags[flagName]
	if !exists {
		return ErrFlagNotFound
	}

	c := cloneFlag(existing)
	c.Enabled = enabled
	c.UpdatedAt = m.now()
	m.flags[flagName] = c
	return nil
}

// DeleteFlag implements Provider
func (m *MemoryProvider) DeleteFlag(_ context.Context, flagName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.flags[flagName]; !exists {
		return ErrFlagNotFound
	}
	delete(m.flags, flagName)
	return nil
}

// Close is a no-op
func (m *MemoryProvider) Close() error {
	return nil
}

func validateFlag(flag *Flag) error {
	if flag == nil {
		return errors.Join(ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	if flag.Name == "" {
		return errors.Join(ErrInvalidFlag, errors.New("flag name cannot be empty"))
	}
	return nil
}

func cloneFlag(f *Flag) *Flag {
	c := *f
	c.Tags = slices.Clone(f.Tags)
	return &c
}
