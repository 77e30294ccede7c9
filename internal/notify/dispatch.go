// Package notify delivers the best-effort side effects of a gallery
// submission: the Discord webhook message and the Airtable CRM record.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by a notifier whose destination is not set up.
// The dispatcher logs it as a skip, not as a failure.
var ErrNotConfigured = errors.New("destination not configured")

// Policy decides how the dispatcher runs a task relative to its caller.
type Policy int

const (
	// AwaitedNonFatal runs the task before Run returns. Its error is logged and dropped.
	AwaitedNonFatal Policy = iota
	// DetachedNonFatal runs the task in the background. Run returns immediately.
	DetachedNonFatal
)

func (p Policy) String() string {
	switch p {
	case AwaitedNonFatal:
		return "awaited-non-fatal"
	case DetachedNonFatal:
		return "detached-non-fatal"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

type Task func(ctx context.Context) error

type Dispatcher struct {
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(logger *zap.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes task under policy. It never returns the task's error: side
// effects must not change the outcome of the request that triggered them.
// Detached tasks keep the values of ctx but not its cancellation.
func (d *Dispatcher) Run(ctx context.Context, name string, policy Policy, task Task) {
	switch policy {
	case DetachedNonFatal:
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.run(context.WithoutCancel(ctx), name, policy, task)
		}()
	default:
		d.run(ctx, name, policy, task)
	}
}

// Wait blocks until every detached task has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context, name string, policy Policy, task Task) {
	logger := d.logger.With(zap.String("task", name), zap.Stringer("policy", policy))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("notification panicked", zap.Any("panic", r))
		}
	}()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	err := task(ctx)
	switch {
	case errors.Is(err, ErrNotConfigured):
		logger.Info("notification skipped, destination not configured")
	case err != nil:
		logger.Warn("notification failed",
			zap.String("code", "upstream_side_effect_failed"),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
	default:
		logger.Debug("notification delivered", zap.Duration("elapsed", time.Since(start)))
	}
}
