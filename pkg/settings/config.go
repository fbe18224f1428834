package settings

import "time"

// Source names accepted by Config.Source
const (
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
	SourceMemory   = "memory"
	SourceFile     = "file"
	SourceNone     = "none"
)

// Setting keys
const (
	KeyWorkersEnabled = "workers_enabled"
)

// Config holds the static defaults and the dynamic source selection
type Config struct {
	Source         string        `env:"RUNTIME_SETTINGS_SOURCE" envDefault:"postgres"`                     // Source is one of postgres, redis, file, memory or none.
	CacheTTL       time.Duration `env:"RUNTIME_SETTINGS_CACHE_TTL" envDefault:"30s"`                       // CacheTTL is how long a source snapshot is reused.
	RedisKey       string        `env:"RUNTIME_SETTINGS_REDIS_KEY" envDefault:"hookrelay:runtime_settings"` // RedisKey is the hash read by the redis source.
	File           string        `env:"RUNTIME_SETTINGS_FILE"`                                             // File is the YAML mapping read by the file source.
	WorkersEnabled bool          `env:"WORKERS_ENABLED" envDefault:"true"`                                 // WorkersEnabled is the static default of the worker switch.

	// WorkersEnabledEnvironments limits the memory source's worker switch to
	// these application environments. Empty means every environment.
	WorkersEnabledEnvironments []string `env:"WORKERS_ENABLED_ENVIRONMENTS" envSeparator:","`
}

// Defaults returns the static settings described by cfg
func (c Config) Defaults() map[string]any {
	return map[string]any{
		KeyWorkersEnabled: c.WorkersEnabled,
	}
}
