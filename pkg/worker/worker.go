// Package worker runs detached background tasks whose outcome only matters to logs.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const DefaultMaxConcurrency = 64

type Task func(ctx context.Context) error

// Pool runs fire-and-forget tasks. Submitting never blocks the caller; at most
// maxConcurrency tasks execute at once and the rest wait for a slot.
type Pool struct {
	logger *slog.Logger
	sem    *semaphore.Weighted
	g      errgroup.Group
}

func New(logger *slog.Logger, maxConcurrency int) *Pool {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	return &Pool{
		logger: logger,
		sem:    semaphore.NewWeighted(int64(maxConcurrency)),
	}
}

// Go schedules task and returns immediately. The task runs on a context that
// keeps the values of ctx but is never cancelled with it. Errors and panics
// are logged under name and never reach the caller.
func (p *Pool) Go(ctx context.Context, name string, task Task) {
	ctx = context.WithoutCancel(ctx)

	p.g.Go(func() error {
		// ctx cannot be cancelled, so Acquire only returns once a slot is free.
		_ = p.sem.Acquire(ctx, 1)
		defer p.sem.Release(1)

		if err := p.run(ctx, task); err != nil {
			p.logger.Error("background task failed",
				slog.String("task", name),
				slog.Any("err", err),
			)
		}

		return nil
	})
}

func (p *Pool) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return task(ctx)
}

// Wait blocks until every scheduled task has finished. Call it once no new
// tasks can be submitted, typically after the HTTP server has shut down.
func (p *Pool) Wait() {
	_ = p.g.Wait()
}
