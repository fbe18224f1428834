package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/hookrelay/pkg/async"
	"github.com/dmitrymomot/hookrelay/pkg/config"
	"github.com/dmitrymomot/hookrelay/pkg/environment"
	"github.com/dmitrymomot/hookrelay/pkg/httpserver"
	"github.com/dmitrymomot/hookrelay/pkg/logger"
	"github.com/dmitrymomot/hookrelay/pkg/pg"
	"github.com/dmitrymomot/hookrelay/pkg/redis"
	"github.com/dmitrymomot/hookrelay/pkg/relay"
	"github.com/dmitrymomot/hookrelay/pkg/relay/pgstore"
	"github.com/dmitrymomot/hookrelay/pkg/settings"
	"github.com/dmitrymomot/hookrelay/pkg/shardlock"
	"github.com/dmitrymomot/hookrelay/pkg/webhook"
)

var errLockTTLTooShort = errors.New("shard lock TTL must exceed the relay unit timeout")

type appConfig struct {
	Name string `env:"APP_NAME" envDefault:"hookrelay"`
	Env  string `env:"APP_ENV" envDefault:"development"`
}

type configs struct {
	app      appConfig
	log      logger.Config
	relay    relay.Config
	webhook  webhook.Config
	locks    shardlock.Config
	settings settings.Config
	pg       pg.Config
	redis    redis.Config
	ops      httpserver.Config
}

func loadConfigs() (configs, error) {
	var c configs
	err := errors.Join(
		config.Load(&c.app),
		config.Load(&c.log),
		config.Load(&c.relay),
		config.Load(&c.webhook),
		config.Load(&c.locks),
		config.Load(&c.settings),
		config.Load(&c.pg),
		config.Load(&c.redis),
		config.Load(&c.ops),
	)
	if err != nil {
		return configs{}, err
	}
	return c, nil
}

// needsRedis reports whether any component was configured to use redis
func needsRedis(c configs) bool {
	return strings.EqualFold(strings.TrimSpace(c.locks.Backend), shardlock.BackendRedis) ||
		strings.EqualFold(strings.TrimSpace(c.settings.Source), settings.SourceRedis)
}

// poolStarvation reports whether postgres shard locks could pin every pooled
// connection. Each consumer holds one connection for its lock and needs
// another for the message queries, and the producer needs one more.
func poolStarvation(c configs) bool {
	backend := strings.ToLower(strings.TrimSpace(c.locks.Backend))
	if backend != shardlock.BackendPostgres && backend != "" {
		return false
	}
	return int(c.pg.MaxOpenConns) < 2*c.relay.ThreadCount+1
}

// checkLockTTL rejects redis shard locks that could expire while a consumer
// still works on the shard, which would let a second consumer take it.
func checkLockTTL(c configs) error {
	if !strings.EqualFold(strings.TrimSpace(c.locks.Backend), shardlock.BackendRedis) {
		return nil
	}
	ttl := c.locks.TTL
	if ttl <= 0 {
		ttl = shardlock.DefaultRedisTTL
	}
	unit := c.relay.UnitTimeout
	if unit <= 0 {
		unit = relay.DefaultUnitTimeout
	}
	if ttl <= unit {
		return fmt.Errorf("%w: SHARD_LOCK_TTL %s, RELAY_UNIT_TIMEOUT %s", errLockTTLTooShort, ttl, unit)
	}
	return nil
}

// connect dials postgres and, when needed, redis in parallel. The returned
// client is nil when redis is not used.
func connect(ctx context.Context, c configs) (*pgxpool.Pool, goredis.UniversalClient, error) {
	pgFuture := async.Async(ctx, c.pg, pg.Connect)

	var redisFuture *async.Future[*goredis.Client]
	if needsRedis(c) {
		redisFuture = async.Async(ctx, c.redis, redis.Connect)
	}

	pool, pgErr := pgFuture.Await()

	var client goredis.UniversalClient
	var redisErr error
	if redisFuture != nil {
		rc, err := redisFuture.Await()
		if rc != nil {
			client = rc
		}
		redisErr = err
	}

	if err := errors.Join(pgErr, redisErr); err != nil {
		if pool != nil {
			pool.Close()
		}
		if client != nil {
			_ = client.Close()
		}
		return nil, nil, err
	}
	return pool, client, nil
}

func run(ctx context.Context, migrateOnly bool) error {
	cfg, err := loadConfigs()
	if err != nil {
		return err
	}
	if err := checkLockTTL(cfg); err != nil {
		return err
	}

	log, err := logger.NewFromConfig(cfg.log, cfg.app.Env, cfg.app.Name)
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	ctx = environment.WithContext(ctx, cfg.app.Env)

	pool, client, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if client != nil {
		defer func() { _ = client.Close() }()
	}

	if err := pg.MigrateFS(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg.pg, log); err != nil {
		return err
	}
	if migrateOnly {
		log.InfoContext(ctx, "migrations applied, exiting")
		return nil
	}

	if poolStarvation(cfg) {
		log.WarnContext(ctx, "postgres pool may be too small for advisory shard locks",
			slog.Int("pg_max_open_conns", int(cfg.pg.MaxOpenConns)),
			slog.Int("relay_thread_count", cfg.relay.ThreadCount))
	}

	locker, err := shardlock.New(cfg.locks, pool, client)
	if err != nil {
		return err
	}
	store := pgstore.New(pool)

	source, toggles, err := newSettingsSource(cfg.settings, pool, client)
	if err != nil {
		return err
	}
	resolver := settings.NewResolver(source, cfg.settings, settings.WithLogger(log))
	if toggles != nil {
		go watchToggleSignals(ctx, toggles, resolver, log)
	}

	endpoint, err := cfg.webhook.URL()
	if err != nil {
		return err
	}
	sender := webhook.NewSenderFromConfig(cfg.webhook)

	producer, err := relay.NewProducer(cfg.relay.Producer, store, locker, cfg.relay.RetryPolicy(),
		append(cfg.relay.ProducerOptions(), relay.WithProducerLogger(log))...)
	if err != nil {
		return err
	}

	worker, err := relay.NewWorker(store, producer, locker, sender,
		append(cfg.relay.WorkerOptions(),
			relay.WithEndpoint(endpoint),
			relay.WithSwitch(resolver),
			relay.WithWorkerLogger(log),
		)...)
	if err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(cfg.ops, httpserver.WithLogger(log))
	router := newOpsRouter(environment.Environment(cfg.app.Env), log, cfg.ops.CheckTimeout,
		readinessChecks(pool, client, worker)...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(worker.Runner(gctx))
	g.Go(func() error {
		return srv.Run(gctx, router)
	})
	return g.Wait()
}
