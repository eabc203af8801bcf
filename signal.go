package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// exitInterrupted is the conventional status for death by SIGINT.
const exitInterrupted = 130

// interruptContext is canceled by the first SIGINT or SIGTERM so an in-flight
// call can unwind (a partial image download is removed on the way out). A
// second signal exits immediately. The returned stop function releases the
// signal handler.
func interruptContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	var once sync.Once

	stop := func() {
		once.Do(func() {
			close(done)
			cancel()
		})
	}

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Warn("interrupted, canceling call", slog.String("signal", sig.String()))
			cancel()
		case <-done:
			return
		case <-parent.Done():
			return
		}

		select {
		case <-sigCh:
			os.Exit(exitInterrupted)
		case <-done:
		}
	}()

	return ctx, stop
}
