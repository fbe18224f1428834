package feature

import (
	"context"
	"errors"
	"slices"
)

// AlwaysStrategy returns the same value for every context.
type AlwaysStrategy struct {
	Value bool
}

func (s *AlwaysStrategy) Evaluate(context.Context) (bool, error) {
	return s.Value, nil
}

func NewAlwaysOnStrategy() Strategy {
	return &AlwaysStrategy{Value: true}
}

func NewAlwaysOffStrategy() Strategy {
	return &AlwaysStrategy{Value: false}
}

// EnvironmentStrategy enables a flag only in the listed environments.
type EnvironmentStrategy struct {
	EnabledEnvironments []string

	environmentExtractor EnvironmentExtractor
}

// Evaluate reports whether the context's environment is listed.
// Without an extractor, or with no environment in ctx, the flag is off.
func (s *EnvironmentStrategy) Evaluate(ctx context.Context) (bool, error) {
	if len(s.EnabledEnvironments) == 0 {
		return false, ErrInvalidStrategy
	}
	if s.environmentExtractor == nil {
		return false, nil
	}

	env := s.environmentExtractor(ctx)
	if env == "" {
		return false, nil
	}
	return slices.Contains(s.EnabledEnvironments, env), nil
}

// EnvironmentStrategyOption configures an EnvironmentStrategy.
type EnvironmentStrategyOption func(*EnvironmentStrategy)

// WithEnvironmentExtractor sets the environment extractor for the strategy.
func WithEnvironmentExtractor(extractor EnvironmentExtractor) EnvironmentStrategyOption {
	return func(s *EnvironmentStrategy) {
		s.environmentExtractor = extractor
	}
}

// NewEnvironmentStrategy creates a strategy that enables features in specific environments.
func NewEnvironmentStrategy(environments []string, opts ...EnvironmentStrategyOption) Strategy {
	s := &EnvironmentStrategy{
		EnabledEnvironments: environments,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CompositeStrategy combines strategies with "and" or "or".
type CompositeStrategy struct {
	Strategies []Strategy
	Operator   string
}

// Evaluate short-circuits on the first deciding child. Child errors abort evaluation.
func (s *CompositeStrategy) Evaluate(ctx context.Context) (bool, error) {
	if len(s.Strategies) == 0 {
		return false, ErrInvalidStrategy
	}

	var decisive bool
	switch s.Operator {
	case "and":
		decisive = false
	case "or":
		decisive = true
	default:
		return false, errors.Join(ErrInvalidStrategy,
			errors.New("composite operator must be 'and' or 'or'"))
	}

	for _, strategy := range s.Strategies {
		enabled, err := strategy.Evaluate(ctx)
		if err != nil {
			return false, err
		}
		if enabled == decisive {
			return decisive, nil
		}
	}
	return !decisive, nil
}

// NewAndStrategy creates a strategy that requires all child strategies to return true.
func NewAndStrategy(strategies ...Strategy) Strategy {
	return &CompositeStrategy{Strategies: strategies, Operator: "and"}
}

// NewOrStrategy creates a strategy that requires at least one child strategy to return true.
func NewOrStrategy(strategies ...Strategy) Strategy {
	return &CompositeStrategy{Strategies: strategies, Operator: "or"}
}
