package internal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/madmis/kuna-bot/config"
	"github.com/madmis/kuna-bot/internal/diagnostics"
	"github.com/madmis/kuna-bot/internal/services/strategy"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// TradingStrategy decision logic driven by the bot once per cycle.
type TradingStrategy interface {
	// Reconcile fixes up resting orders before the balances are evaluated.
	Reconcile(ctx context.Context) error
	// ProcessBaseFunds sells the base currency balance.
	ProcessBaseFunds(ctx context.Context) error
	// ProcessQuoteFunds buys with the quote currency balance.
	ProcessQuoteFunds(ctx context.Context) error
}

type memoryReporter interface {
	Report()
}

// TradingBot runs the iteration loop of a single pair.
type TradingBot struct {
	Config   config.Config
	strategy TradingStrategy
	memory   memoryReporter
	closer   io.Closer
	sleep    func(ctx context.Context, d time.Duration) error
	l        *zap.Logger
}

// NewTradingBot creates a new trading bot instance.
func NewTradingBot(l *zap.Logger, conf config.Config, gateway strategy.Gateway) (*TradingBot, error) {
	tradingStrategy, err := createTradingStrategy(l, conf, gateway)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trading strategy")
	}

	bot := &TradingBot{
		Config:   conf,
		strategy: tradingStrategy,
		sleep:    sleepContext,
		l:        l,
	}
	if conf.ShowMemoryUsage {
		bot.memory = diagnostics.NewMemoryReporter(l)
	}
	if c, ok := gateway.(io.Closer); ok {
		bot.closer = c
	}

	return bot, nil
}

// Close releases the resources held by the exchange gateway.
func (b *TradingBot) Close() error {
	if b.closer == nil {
		return nil
	}

	return b.closer.Close()
}

// Run executes cycles until the strategy stops the bot, a fatal failure occurs or
// ctx is done. A stop returns nil, a fatal failure returns its cause.
func (b *TradingBot) Run(ctx context.Context) error {
	b.l.Info("Starting trading loop",
		zap.String("pair", b.Config.Pair.String()),
		zap.String("strategy", b.Config.Strategy),
		zap.Duration("iteration_timeout", b.Config.IterationTimeout),
	)

	for {
		if err := ctx.Err(); err != nil {
			b.l.Info("Context done, stopping trading bot run loop", zap.String("pair", b.Config.Pair.String()))
			return err
		}

		outcome := b.RunCycle(ctx)

		if b.memory != nil {
			b.memory.Report()
		}

		switch outcome.Kind {
		case OutcomeStop:
			if err := ctx.Err(); err != nil {
				b.l.Info("Context done, stopping trading bot run loop", zap.String("pair", b.Config.Pair.String()))
				return err
			}
			b.l.Warn("Bot stopped", zap.String("pair", b.Config.Pair.String()), zap.Error(outcome.Err))
			return nil
		case OutcomeFatal:
			b.l.Error("Bot terminated", zap.String("pair", b.Config.Pair.String()), zap.Error(outcome.Err))
			return outcome.Err
		}

		delay := b.Config.IterationTimeout
		if outcome.Kind == OutcomeRetry {
			delay = outcome.Delay
		}

		if err := b.sleep(ctx, delay); err != nil {
			b.l.Info("Context done, stopping trading bot run loop", zap.String("pair", b.Config.Pair.String()))
			return err
		}
	}
}

// RunCycle evaluates both sides of the pair once and classifies the result.
func (b *TradingBot) RunCycle(ctx context.Context) CycleOutcome {
	b.l.Info(fmt.Sprintf("***************%s***************", b.Config.Pair.String()))

	outcome := ClassifyCycleError(b.cycle(ctx))
	b.logOutcome(outcome)

	return outcome
}

func (b *TradingBot) cycle(ctx context.Context) error {
	if err := b.strategy.Reconcile(ctx); err != nil {
		return errors.Wrap(err, "failed to reconcile orders")
	}

	if err := b.strategy.ProcessBaseFunds(ctx); err != nil {
		return errors.Wrap(err, "failed to process base funds")
	}

	if err := b.strategy.ProcessQuoteFunds(ctx); err != nil {
		return errors.Wrap(err, "failed to process quote funds")
	}

	return nil
}

func (b *TradingBot) logOutcome(outcome CycleOutcome) {
	if outcome.Err == nil || outcome.Terminal() {
		return
	}

	switch {
	case outcome.Kind == OutcomeRetry:
		b.l.Warn("Iteration interrupted", zap.Duration("retry_after", outcome.Delay), zap.Error(outcome.Err))
	case outcome.Malformed:
		b.l.Error("Type error", zap.Error(outcome.Err))
	default:
		b.l.Error("Unhandled error", zap.Error(outcome.Err), zap.Stack("stack"))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
