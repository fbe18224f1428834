// Package settings resolves runtime settings that operators can change while
// hookrelay is running, most importantly the workers_enabled switch consulted
// by the delivery worker before every production cycle.
//
// A Resolver reads a dynamic Source and falls back to static defaults taken
// from the environment when the source is unavailable or does not define a
// key. Source snapshots are cached for Config.CacheTTL, so a change becomes
// visible within one TTL.
//
// Sources:
//
//   - pgstore.SettingsSource: newest row of the runtime_settings table
//   - RedisSource: a Redis hash, by default hookrelay:runtime_settings
//   - FeatureSource: flags of any feature.Provider, by flag name
//   - FileSource: a YAML mapping on disk, re-read when the cache expires
//
// # Usage
//
//	resolver := settings.NewResolver(settings.NewRedisSource(client, cfg.RedisKey), cfg,
//		settings.WithLogger(log))
//
//	worker, err := relay.NewWorker(store, producer, locker, sender,
//		relay.WithSwitch(resolver),
//	)
//
// # Values
//
// Values are interpreted as booleans the way they are stored: JSON booleans as
// is, strings through strconv.ParseBool, numbers as true unless zero and an
// explicit null as false. A value that cannot be interpreted falls back to
// the static default.
package settings
