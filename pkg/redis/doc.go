// Package redis connects hookrelay to Redis through go-redis.
//
// Redis backs two optional components: the redis shard lock backend
// (SHARD_LOCK_BACKEND=redis) and the redis runtime settings source
// (RUNTIME_SETTINGS_SOURCE=redis). Connect retries until the server answers a
// PING, and Healthcheck plugs the client into the readiness probe.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Errors wrap the package sentinels with errors.Join; compare with errors.Is.
package redis
