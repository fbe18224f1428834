// Package config loads hookrelay's configuration structs from environment
// variables using github.com/caarlos0/env/v11, with optional .env files read
// through github.com/joho/godotenv.
//
// Each package that needs settings declares its own struct with `env` and
// `envDefault` tags next to the code it configures (relay.Config, pg.Config,
// webhook.Config and so on). The binary loads all of them at startup.
//
// # Usage
//
//	if err := config.LoadEnv("./deploy/hookrelay.env"); err != nil {
//		return err
//	}
//
//	var cfg relay.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// LoadEnv without arguments reads .env from the working directory. Variables
// already present in the process environment are never overwritten.
//
// # Caching
//
// A process-wide cache keeps one parsed copy per struct type, keyed by
// reflect.Type and guarded by a mutex, so later Load calls for the same type
// return the first result. Failed parses are not cached: a corrected
// environment is picked up by the next Load. ResetCache clears the cache
// between tests.
//
// # Errors
//
// ErrParsingConfig wraps env parse failures, including missing required
// variables. ErrNilPointer is returned for a nil target and ErrLoadingEnvFile
// when an explicit .env file cannot be read. MustLoad and MustLoadEnv panic
// instead of returning.
package config
