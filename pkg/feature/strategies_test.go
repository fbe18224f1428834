package feature_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hookrelay/pkg/environment"
	"github.com/dmitrymomot/hookrelay/pkg/feature"
)

type strategyFunc func(context.Context) (bool, error)

func (f strategyFunc) Evaluate(ctx context.Context) (bool, error) { return f(ctx) }

func TestAlwaysStrategies(t *testing.T) {
	t.Parallel()

	on, err := feature.NewAlwaysOnStrategy().Evaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, on)

	off, err := feature.NewAlwaysOffStrategy().Evaluate(context.Background())
	require.NoError(t, err)
	assert.False(t, off)
}

func TestEnvironmentStrategy(t *testing.T) {
	t.Parallel()

	strategy := feature.NewEnvironmentStrategy(
		[]string{"production", "staging"},
		feature.WithEnvironmentExtractor(environment.FromContext),
	)

	tests := []struct {
		name     string
		ctx      context.Context
		expected bool
	}{
		{name: "listed", ctx: environment.WithContext(context.Background(), "production"), expected: true},
		{name: "not listed", ctx: environment.WithContext(context.Background(), "development")},
		{name: "no environment", ctx: context.Background()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			enabled, err := strategy.Evaluate(tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, enabled)
		})
	}

	t.Run("without extractor", func(t *testing.T) {
		t.Parallel()
		enabled, err := feature.NewEnvironmentStrategy([]string{"production"}).
			Evaluate(environment.WithContext(context.Background(), "production"))
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("empty list is invalid", func(t *testing.T) {
		t.Parallel()
		_, err := feature.NewEnvironmentStrategy(nil).Evaluate(context.Background())
		assert.ErrorIs(t, err, feature.ErrInvalidStrategy)
	})
}

func TestCompositeStrategy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	on, off := feature.NewAlwaysOnStrategy(), feature.NewAlwaysOffStrategy()
	calls := 0
	counting := strategyFunc(func(context.Context) (bool, error) { calls++; return true, nil })
	failing := strategyFunc(func(context.Context) (bool, error) { return false, errors.New("boom") })

	tests := []struct {
		name     string
		strategy feature.Strategy
		expected bool
		err      bool
	}{
		{name: "and all on", strategy: feature.NewAndStrategy(on, on), expected: true},
		{name: "and one off", strategy: feature.NewAndStrategy(on, off)},
		{name: "or one on", strategy: feature.NewOrStrategy(off, on), expected: true},
		{name: "or all off", strategy: feature.NewOrStrategy(off, off)},
		{name: "child error", strategy: feature.NewAndStrategy(on, failing), err: true},
		{name: "empty", strategy: feature.NewOrStrategy(), err: true},
		{name: "bad operator", strategy: &feature.CompositeStrategy{Strategies: []feature.Strategy{on}, Operator: "xor"}, err: true},
	}

	for _, tt := range tests {
		enabled, err := tt.strategy.Evaluate(ctx)
		if tt.err {
			assert.Error(t, err, tt.name)
			continue
		}
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.expected, enabled, tt.name)
	}

	enabled, err := feature.NewOrStrategy(on, counting).Evaluate(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Zero(t, calls, "or short-circuits on the first true")
}
