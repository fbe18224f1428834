package settings

import (
	"context"
	"errors"

	"github.com/dmitrymomot/hookrelay/pkg/feature"
)

// FeatureSource exposes the flags of a feature provider as boolean settings,
// one per flag name. Flags are evaluated against the lookup context.
type FeatureSource struct {
	provider feature.Provider
}

// NewFeatureSource adapts provider
func NewFeatureSource(provider feature.Provider) *FeatureSource {
	return &FeatureSource{provider: provider}
}

// Settings implements Source
func (s *FeatureSource) Settings(ctx context.Context) (map[string]any, error) {
	flags, err := s.provider.ListFlags(ctx)
	if err != nil {
		return nil, errors.Join(ErrSourceUnavailable, err)
	}

	out := make(map[string]any, len(flags))
	for _, flag := range flags {
		enabled, err := s.provider.IsEnabled(ctx, flag.Name)
		if errors.Is(err, feature.ErrFlagNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Join(ErrSourceUnavailable, err)
		}
		out[flag.Name] = enabled
	}
	return out, nil
}
