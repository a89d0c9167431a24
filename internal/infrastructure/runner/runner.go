package runner

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Runner runs the long-lived processes of the server. The first one to fail
// cancels the context handed to all the others.
type Runner struct {
	g   *errgroup.Group
	ctx context.Context
}

func New(ctx context.Context) *Runner {
	g, ctx := errgroup.WithContext(ctx)

	return &Runner{
		g:   g,
		ctx: ctx,
	}
}

// Context is cancelled as soon as one process fails or the parent is done.
func (r *Runner) Context() context.Context {
	return r.ctx
}

func (r *Runner) Go(name string, f func(ctx context.Context) error) {
	r.g.Go(func() error {
		slog.DebugContext(r.ctx, "process started", "process", name)

		if err := f(r.ctx); err != nil {
			slog.ErrorContext(r.ctx, "process failed", "process", name, "error", err)
			return fmt.Errorf("%s: %w", name, err)
		}

		slog.DebugContext(r.ctx, "process stopped", "process", name)
		return nil
	})
}

func (r *Runner) Wait() error {
	return r.g.Wait()
}
