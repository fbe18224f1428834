package httpserver

import "errors"

var (
	// ErrStart indicates that the server failed to bind or serve.
	ErrStart = errors.New("failed to start ops HTTP server")
	// ErrShutdown indicates that graceful shutdown failed.
	ErrShutdown = errors.New("failed to shut down ops HTTP server gracefully")
	// ErrAlreadyRunning is returned by Run on a server that was started before.
	ErrAlreadyRunning = errors.New("ops HTTP server already started")
)
