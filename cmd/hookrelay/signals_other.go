//go:build !unix

package main

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/hookrelay/pkg/feature"
	"github.com/dmitrymomot/hookrelay/pkg/settings"
)

// watchToggleSignals is a no-op where SIGUSR1 and SIGUSR2 do not exist
func watchToggleSignals(ctx context.Context, _ *feature.MemoryProvider, _ *settings.Resolver, log *slog.Logger) {
	log.WarnContext(ctx, "signal toggles are not supported on this platform")
}
