//go:build unix

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/hookrelay/pkg/feature"
	"github.com/dmitrymomot/hookrelay/pkg/logger"
	"github.com/dmitrymomot/hookrelay/pkg/settings"
)

// invalidator drops cached settings so the next lookup sees a change
type invalidator interface {
	Invalidate()
}

// watchToggleSignals flips the in-memory workers switch: SIGUSR1 disables
// production and SIGUSR2 enables it again. It returns when ctx is done.
func watchToggleSignals(ctx context.Context, flags *feature.MemoryProvider, cache invalidator, log *slog.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			enabled := sig == syscall.SIGUSR2
			applyToggle(ctx, flags, cache, log, enabled)
		}
	}
}

func applyToggle(ctx context.Context, flags *feature.MemoryProvider, cache invalidator, log *slog.Logger, enabled bool) {
	if err := flags.SetEnabled(ctx, settings.KeyWorkersEnabled, enabled); err != nil {
		log.ErrorContext(ctx, "failed to toggle workers", logger.Error(err))
		return
	}
	cache.Invalidate()
	log.InfoContext(ctx, "workers switch toggled", slog.Bool("enabled", enabled))
}
