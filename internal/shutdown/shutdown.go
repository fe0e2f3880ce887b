// Package shutdown turns termination signals into context cancellation.
//
// The first signal cancels the returned context so the pipeline can finish
// the file in progress and report an interrupted run. A second signal calls
// the exit hook with ForcedExitCode right away, skipping any cleanup.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"soundunpack/internal/logging"
)

// ForcedExitCode is used when a second signal demands immediate termination.
const ForcedExitCode = 127

// Signals handled by Notify.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// Option configures the signal watcher.
type Option func(*watcher)

// WithExit overrides os.Exit (primarily for tests).
func WithExit(exit func(int)) Option {
	return func(w *watcher) {
		if exit != nil {
			w.exit = exit
		}
	}
}

type watcher struct {
	logger *slog.Logger
	exit   func(int)
}

// Notify installs handlers for Signals. The returned stop function restores
// default signal behaviour.
func Notify(parent context.Context, logger *slog.Logger, opts ...Option) (context.Context, func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, Signals...)
	ctx, stop := Watch(parent, ch, logger, opts...)
	return ctx, func() {
		signal.Stop(ch)
		stop()
	}
}

// Watch cancels the returned context on the first value received from
// signals and calls the exit hook on the second.
func Watch(parent context.Context, signals <-chan os.Signal, logger *slog.Logger, opts ...Option) (context.Context, func()) {
	w := &watcher{
		logger: logging.NewComponentLogger(logger, "shutdown"),
		exit:   os.Exit,
	}
	for _, opt := range opts {
		opt(w)
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		received := 0
		for {
			select {
			case <-done:
				return
			case sig := <-signals:
				received++
				if received == 1 {
					logging.WarnWithContext(w.logger, "interrupt received; finishing current file", "shutdown_requested",
						logging.String("signal", sig.String()),
						logging.String(logging.FieldErrorHint, "send the signal again to exit immediately"),
						logging.String(logging.FieldImpact, "remaining files are left for the next run"),
					)
					cancel()
					continue
				}
				w.logger.Error("second interrupt received; exiting immediately",
					logging.String("signal", sig.String()),
					logging.String(logging.FieldEventType, "shutdown_forced"),
				)
				w.exit(ForcedExitCode)
				return
			}
		}
	}()

	return ctx, func() {
		once.Do(func() {
			close(done)
			cancel()
		})
	}
}
