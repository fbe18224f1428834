package feature

import (
	"context"
	"time"
)

// Flag is a named switch with an optional rollout strategy.
type Flag struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Enabled     bool      `json:"enabled"`
	Strategy    Strategy  `json:"strategy,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Strategy narrows an enabled flag down to the contexts it applies to.
type Strategy interface {
	Evaluate(ctx context.Context) (bool, error)
}

// EnvironmentExtractor retrieves the application environment from a context.
type EnvironmentExtractor func(ctx context.Context) string

// Provider stores flags and evaluates them.
type Provider interface {
	// IsEnabled checks if a feature flag is enabled for the given context.
	// If the flag doesn't exist, it returns false and ErrFlagNotFound.
	IsEnabled(ctx context.Context, flagName string) (bool, error)

	// GetFlag returns the full flag configuration.
	// If the flag doesn't exist, it returns nil and ErrFlagNotFound.
	GetFlag(ctx context.Context, flagName string) (*Flag, error)

	// ListFlags returns all available flags, optionally filtered by tags.
	ListFlags(ctx context.Context, tags ...string) ([]*Flag, error)

	// CreateFlag creates a new feature flag.
	CreateFlag(ctx context.Context, flag *Flag) error

	// UpdateFlag replaces an existing feature flag.
	// If the flag doesn't exist, it returns ErrFlagNotFound.
	UpdateFlag(ctx context.Context, flag *Flag) error

	// DeleteFlag deletes a feature flag.
	// If the flag doesn't exist, it returns ErrFlagNotFound.
	DeleteFlag(ctx context.Context, flagName string) error

	// Close releases any resources used by the provider.
	Close() error
}
