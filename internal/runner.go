package internal

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Runner a bot loop started by RunBots.
type Runner interface {
	Run(ctx context.Context) error
	Close() error
}

// RunBots runs every bot in its own goroutine and waits for all of them.
// Bots share nothing: a failed bot leaves the others running until they end or
// ctx is done. The first failure is returned, shutdown through ctx is not one.
func RunBots(ctx context.Context, bots map[string]Runner) error {
	var g errgroup.Group
	for name, bot := range bots {
		g.Go(func() error {
			err := bot.Run(ctx)
			if errors.Is(err, context.Canceled) {
				err = nil
			}

			if closeErr := bot.Close(); closeErr != nil && err == nil {
				err = errors.Wrap(closeErr, "failed to close")
			}

			return errors.Wrapf(err, "bot %s", name)
		})
	}

	return g.Wait()
}
