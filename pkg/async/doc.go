// Package async runs a function in its own goroutine and hands back a Future
// for its result. hookrelay uses it to dial its backing services in parallel
// at startup:
//
//	pgFuture := async.Async(ctx, cfg.PG, pg.Connect)
//	redisFuture := async.Async(ctx, cfg.Redis, redis.Connect)
//	pool, pgErr := pgFuture.Await()
//	client, redisErr := redisFuture.Await()
//
// A future completes with the context error, without calling the function,
// when the context is already done.
package async
