// Package httpserver runs the small operations HTTP server of hookrelay: a
// wrapper around net/http with graceful shutdown and configurable timeouts,
// plus the liveness and readiness handlers it serves.
//
// Run blocks until the context is cancelled or Shutdown is called, then shuts
// down within the configured deadline. Signal handling is left to the caller,
// which usually derives ctx from signal.NotifyContext.
//
// # Usage
//
//	r := chi.NewRouter()
//	r.Get("/livez", httpserver.LivenessHandler())
//	r.Get("/readyz", httpserver.ReadinessHandler(log, cfg.CheckTimeout,
//		httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//	))
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		return err
//	}
//
// Errors returned by Run and Shutdown wrap ErrStart and ErrShutdown. A Server
// runs once; a second Run returns ErrAlreadyRunning.
package httpserver
