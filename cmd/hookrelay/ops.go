package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/hookrelay/pkg/environment"
	"github.com/dmitrymomot/hookrelay/pkg/httpserver"
	"github.com/dmitrymomot/hookrelay/pkg/pg"
	"github.com/dmitrymomot/hookrelay/pkg/redis"
)

var errWorkerStopped = errors.New("relay worker is not running")

// lifecycle is the part of the worker the readiness probe watches
type lifecycle interface {
	Done() <-chan struct{}
}

// newOpsRouter serves the liveness and readiness probes
func newOpsRouter(env environment.Environment, log *slog.Logger, timeout time.Duration, checks ...httpserver.Check) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(environment.Middleware(env))

	r.Get("/livez", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, timeout, checks...))

	return r
}

func readinessChecks(pool *pgxpool.Pool, client goredis.UniversalClient, worker lifecycle) []httpserver.Check {
	checks := []httpserver.Check{
		{Name: "postgres", Fn: pg.Healthcheck(pool)},
	}
	if client != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	}
	return append(checks, httpserver.Check{Name: "worker", Fn: workerAlive(worker)})
}

// workerAlive fails once the worker loop has exited. A worker that has not
// started yet counts as alive.
func workerAlive(w lifecycle) func(context.Context) error {
	return func(context.Context) error {
		select {
		case <-w.Done():
			return errWorkerStopped
		default:
			return nil
		}
	}
}
