package run

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

type Runner struct {
	Logger          *zap.Logger
	ShutdownTimeout time.Duration
}

func New(log *zap.Logger) *Runner {
	return &Runner{Logger: log, ShutdownTimeout: 10 * time.Second}
}

// WithSignals runs start until it returns or SIGINT/SIGTERM arrives. On a
// signal, stop is called with a bounded context and start is awaited.
// The returned value is a process exit code.
func (r *Runner) WithSignals(start func(ctx context.Context) error, stop func(ctx context.Context) error) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return r.run(ctx, start, stop)
}

func (r *Runner) run(ctx context.Context, start func(ctx context.Context) error, stop func(ctx context.Context) error) int {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(ctx)
	}()

	select {
	case <-ctx.Done():
		r.Logger.Info("shutdown signal received")
		if stop != nil {
			c, cancel := context.WithTimeout(context.Background(), r.ShutdownTimeout)
			defer cancel()
			if err := stop(c); err != nil {
				r.Logger.Error("graceful shutdown failed", zap.Error(err))
				return 1
			}
		}
		select {
		case err := <-errCh:
			return r.exitCode(err)
		case <-time.After(r.ShutdownTimeout):
			r.Logger.Warn("service did not stop in time")
			return 1
		}
	case err := <-errCh:
		return r.exitCode(err)
	}
}

func (r *Runner) exitCode(err error) int {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return 0
	}
	r.Logger.Error("service exited with error", zap.Error(err))
	return 1
}

func Exit(code int) {
	os.Exit(code)
}
