// Package relay is a durable, shard-partitioned, at-least-once webhook
// delivery engine.
//
// Messages live in a store. A Worker repeatedly asks a Producer for shards
// with eligible work and feeds them through a bounded queue to a fixed pool of
// consumers. A consumer takes the shard lock without waiting, picks the oldest
// pending message of the shard, checks its backoff window, posts it and
// records the outcome. No two consumers ever work on the same shard at once,
// and within a shard messages go out strictly in id order.
//
// # Architecture
//
//  1. MessageRepository, ShardScanner and EligibleShardFinder encapsulate all
//     persistence concerns. MemoryStore implements them for tests and single
//     node setups; package pgstore implements them on PostgreSQL.
//  2. Locking is delegated to a shardlock.Locker (PostgreSQL advisory locks,
//     Redis or in-process).
//  3. RetryPolicy computes the backoff window, SendingDecider whether a
//     message needs another attempt.
//  4. Errors crossing a worker boundary may be tagged with Fatal; fatal errors
//     stop the worker, everything else is logged and retried later.
//
// # Usage
//
//	store := relay.NewMemoryStore()
//	locker := shardlock.NewMemoryLocker()
//
//	producer, err := relay.NewProducer(cfg.Producer, store, locker, cfg.RetryPolicy(), cfg.ProducerOptions()...)
//	if err != nil {
//	    return err
//	}
//
//	worker, err := relay.NewWorker(store, producer, locker, webhook.NewSender(),
//	    append(cfg.WorkerOptions(), relay.WithEndpoint(url))...)
//	if err != nil {
//	    return err
//	}
//
//	g.Go(worker.Runner(ctx))
//
// # Producers
//
// IterativeProducer scans every pending message in id pages and scales to any
// shard count. UnprocessedShardsProducer asks the store for shards that are
// out of backoff and drops the ones already locked; it wastes less work when
// shard counts are moderate.
package relay
