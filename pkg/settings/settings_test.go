package settings_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hookrelay/pkg/feature"
	"github.com/dmitrymomot/hookrelay/pkg/settings"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Settings(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(map[string]any)
	return s, args.Error(1)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func config(enabled bool) settings.Config {
	return settings.Config{CacheTTL: 30 * time.Second, WorkersEnabled: enabled}
}

func TestResolver_WorkersEnabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name     string
		dynamic  map[string]any
		err      error
		static   bool
		expected bool
	}{
		{name: "dynamic false wins", dynamic: map[string]any{"workers_enabled": false}, static: true, expected: false},
		{name: "dynamic true wins", dynamic: map[string]any{"workers_enabled": true}, static: false, expected: true},
		{name: "missing key falls back", dynamic: map[string]any{"other": false}, static: false, expected: false},
		{name: "empty source falls back", dynamic: map[string]any{}, static: true, expected: true},
		{name: "explicit null disables", dynamic: map[string]any{"workers_enabled": nil}, static: true, expected: false},
		{name: "string value", dynamic: map[string]any{"workers_enabled": "false"}, static: true, expected: false},
		{name: "json number", dynamic: map[string]any{"workers_enabled": json.Number("0")}, static: true, expected: false},
		{name: "garbage falls back", dynamic: map[string]any{"workers_enabled": "maybe"}, static: true, expected: true},
		{name: "source failure falls back", err: errors.New("connection refused"), static: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			source := new(MockSource)
			source.On("Settings", mock.Anything).Return(tt.dynamic, tt.err)

			r := settings.NewResolver(source, config(tt.static))
			assert.Equal(t, tt.expected, r.WorkersEnabled(ctx))
			source.AssertExpectations(t)
		})
	}
}

func TestResolver_NilSourceUsesDefaults(t *testing.T) {
	t.Parallel()

	r := settings.NewResolver(nil, config(false))
	assert.False(t, r.WorkersEnabled(context.Background()))

	v, ok := r.Value(context.Background(), settings.KeyWorkersEnabled)
	assert.True(t, ok)
	assert.Equal(t, false, v)

	_, ok = r.Value(context.Background(), "unknown")
	assert.False(t, ok)
}

func TestResolver_CachesSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	source := new(MockSource)
	source.On("Settings", mock.Anything).Return(map[string]any{"workers_enabled": false}, nil).Once()
	source.On("Settings", mock.Anything).Return(map[string]any{"workers_enabled": true}, nil).Once()

	r := settings.NewResolver(source, config(true), settings.WithClock(c.Now))

	assert.False(t, r.WorkersEnabled(ctx))
	c.Advance(29 * time.Second)
	assert.False(t, r.WorkersEnabled(ctx), "served from cache within the TTL")

	c.Advance(time.Second)
	assert.True(t, r.WorkersEnabled(ctx), "reloaded after the TTL")

	source.AssertNumberOfCalls(t, "Settings", 2)
}

func TestResolver_FailuresAreNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	source := new(MockSource)
	source.On("Settings", mock.Anything).Return(nil, errors.New("timeout")).Once()
	source.On("Settings", mock.Anything).Return(map[string]any{"workers_enabled": false}, nil).Once()

	r := settings.NewResolver(source, config(true))

	assert.True(t, r.WorkersEnabled(ctx))
	assert.False(t, r.WorkersEnabled(ctx))
	source.AssertExpectations(t)
}

func TestResolver_Invalidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	source := new(MockSource)
	source.On("Settings", mock.Anything).Return(map[string]any{"workers_enabled": true}, nil).Once()
	source.On("Settings", mock.Anything).Return(map[string]any{"workers_enabled": false}, nil).Once()

	r := settings.NewResolver(source, config(true))
	assert.True(t, r.WorkersEnabled(ctx))

	r.Invalidate()
	assert.False(t, r.WorkersEnabled(ctx))
}

func TestFeatureSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	provider, err := feature.NewMemoryProvider(
		&feature.Flag{Name: settings.KeyWorkersEnabled, Enabled: true},
		&feature.Flag{Name: "verbose_delivery_logs", Enabled: false},
	)
	require.NoError(t, err)

	source := settings.NewFeatureSource(provider)
	s, err := source.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		settings.KeyWorkersEnabled: true,
		"verbose_delivery_logs":    false,
	}, s)

	r := settings.NewResolver(source, settings.Config{WorkersEnabled: true})
	assert.True(t, r.WorkersEnabled(ctx))

	require.NoError(t, provider.UpdateFlag(ctx, &feature.Flag{Name: settings.KeyWorkersEnabled, Enabled: false}))
	assert.False(t, r.WorkersEnabled(ctx), "zero TTL reads the provider every time")
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()
	assert.Equal(t, map[string]any{"workers_enabled": true}, settings.Config{WorkersEnabled: true}.Defaults())
}
