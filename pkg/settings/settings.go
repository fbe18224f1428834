package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dmitrymomot/hookrelay/pkg/cache"
	"github.com/dmitrymomot/hookrelay/pkg/logger"
)

// Source supplies the dynamic settings layer
type Source interface {
	// Settings returns every setting the source defines. A key present with a
	// nil value is defined as null.
	Settings(ctx context.Context) (map[string]any, error)
}

const snapshotKey = "runtime_settings"

// Resolver looks settings up in a dynamic Source first and in static defaults second
type Resolver struct {
	source   Source
	defaults map[string]any
	cache    *cache.TTLCache[string, map[string]any]
	logger   *slog.Logger
}

// Option configures a Resolver
type Option func(*resolverOptions)

type resolverOptions struct {
	logger *slog.Logger
	now    func() time.Time
}

// WithLogger sets the logger used to report source failures
func WithLogger(l *slog.Logger) Option {
	return func(o *resolverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now for cache expiry
func WithClock(now func() time.Time) Option {
	return func(o *resolverOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// NewResolver creates a resolver over source with the static defaults of cfg.
// A nil source resolves from the defaults only.
func NewResolver(source Source, cfg Config, opts ...Option) *Resolver {
	o := &resolverOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	return &Resolver{
		source:   source,
		defaults: cfg.Defaults(),
		cache:    cache.NewTTLCache[string, map[string]any](1, cfg.CacheTTL, cache.WithClock(o.now)),
		logger:   o.logger.With(logger.Component("runtime_settings")),
	}
}

// Value returns the value of key and whether any layer defines it
func (r *Resolver) Value(ctx context.Context, key string) (any, bool) {
	if snapshot := r.snapshot(ctx); snapshot != nil {
		if v, ok := snapshot[key]; ok {
			return v, true
		}
	}
	v, ok := r.defaults[key]
	return v, ok
}

// Bool resolves key as a boolean. An undefined key or a dynamic value that is
// not a boolean resolves to the static default, and to fallback without one.
func (r *Resolver) Bool(ctx context.Context, key string, fallback bool) bool {
	static := fallback
	if v, ok := r.defaults[key]; ok {
		if b, err := toBool(v); err == nil {
			static = b
		}
	}

	snapshot := r.snapshot(ctx)
	v, ok := snapshot[key]
	if !ok {
		return static
	}

	b, err := toBool(v)
	if err != nil {
		r.logger.WarnContext(ctx, "ignoring runtime setting",
			slog.String("key", key), logger.Error(err))
		return static
	}
	return b
}

// WorkersEnabled reports whether delivery workers may produce work
func (r *Resolver) WorkersEnabled(ctx context.Context) bool {
	return r.Bool(ctx, KeyWorkersEnabled, true)
}

// Invalidate drops the cached snapshot so the next lookup reads the source
func (r *Resolver) Invalidate() {
	r.cache.Purge()
}

func (r *Resolver) snapshot(ctx context.Context) map[string]any {
	if r.source == nil {
		return nil
	}
	if s, ok := r.cache.Get(snapshotKey); ok {
		return s
	}

	s, err := r.source.Settings(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "runtime settings source failed, using static defaults", logger.Error(err))
		return nil
	}
	if s == nil {
		s = map[string]any{}
	}
	r.cache.Set(snapshotKey, s)
	return s
}

func toBool(v any) (bool, error) {
	switch val := v.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrInvalidValue, val)
		}
		return b, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return false, fmt.Errorf("%w: %q", ErrInvalidValue, val)
		}
		return f != 0, nil
	case float64:
		return val != 0, nil
	case int:
		return val != 0, nil
	case int64:
		return val != 0, nil
	default:
		return false, fmt.Errorf("%w: %T", ErrInvalidValue, v)
	}
}
