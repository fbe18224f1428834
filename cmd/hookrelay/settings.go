package main

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/hookrelay/pkg/environment"
	"github.com/dmitrymomot/hookrelay/pkg/feature"
	"github.com/dmitrymomot/hookrelay/pkg/relay/pgstore"
	"github.com/dmitrymomot/hookrelay/pkg/settings"
)

// newSettingsSource builds the runtime settings source selected by cfg.Source.
// The memory source also returns its provider so signals can flip the switch.
// A nil source makes the resolver use the static defaults only.
func newSettingsSource(cfg settings.Config, pool *pgxpool.Pool, client goredis.UniversalClient) (settings.Source, *feature.MemoryProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case settings.SourcePostgres, "":
		if pool == nil {
			return nil, nil, fmt.Errorf("%w: postgres source requires a connection pool", settings.ErrSourceUnavailable)
		}
		return pgstore.NewSettingsSource(pool), nil, nil
	case settings.SourceRedis:
		if client == nil {
			return nil, nil, fmt.Errorf("%w: redis source requires a client", settings.ErrSourceUnavailable)
		}
		return settings.NewRedisSource(client, cfg.RedisKey), nil, nil
	case settings.SourceMemory:
		provider, err := newMemoryFlags(cfg)
		if err != nil {
			return nil, nil, err
		}
		return settings.NewFeatureSource(provider), provider, nil
	case settings.SourceFile:
		if strings.TrimSpace(cfg.File) == "" {
			return nil, nil, fmt.Errorf("%w: file source requires RUNTIME_SETTINGS_FILE", settings.ErrSourceUnavailable)
		}
		return settings.NewFileSource(cfg.File), nil, nil
	case settings.SourceNone:
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", settings.ErrUnknownSource, cfg.Source)
	}
}

// newMemoryFlags seeds the workers switch from the static default, optionally
// scoped to the configured application environments
func newMemoryFlags(cfg settings.Config) (*feature.MemoryProvider, error) {
	flag := &feature.Flag{
		Name:        settings.KeyWorkersEnabled,
		Description: "Let the relay worker produce and deliver messages",
		Enabled:     cfg.WorkersEnabled,
	}
	if envs := compact(cfg.WorkersEnabledEnvironments); len(envs) > 0 {
		flag.Strategy = feature.NewEnvironmentStrategy(envs,
			feature.WithEnvironmentExtractor(environment.FromContext))
	}
	return feature.NewMemoryProvider(flag)
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
