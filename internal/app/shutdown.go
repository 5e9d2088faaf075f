package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ccr-registry-scraper/internal/observability"
)

// GracefulShutdown returns a context that is cancelled on SIGINT or SIGTERM.
// The run loop treats the cancellation as an interrupt: it stops, saves an
// interrupted checkpoint and releases the browser.
func GracefulShutdown(logger *observability.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Warn("Shutdown signal received, saving collected data", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
