package strategy

import (
	"context"
	"time"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SimpleConfig settings of the simple ladder strategy.
type SimpleConfig struct {
	Pair       domain.Pair
	Base       domain.SideConfig
	Quote      domain.SideConfig
	MinAmounts domain.MinTradeAmounts
	Policy     domain.TruncationPolicy
	RetryDelay time.Duration
}

// SimpleStrategy sells the base balance as a ladder above the best ask and buys with
// the quote balance as a ladder around the best bid.
type SimpleStrategy struct {
	conf    SimpleConfig
	gateway Gateway
	gate    *BalanceGate
	ladder  *LadderBuilder
	orders  *OrderSubmitter
	l       *zap.Logger
}

// NewSimpleStrategy creates a SimpleStrategy.
func NewSimpleStrategy(l *zap.Logger, gateway Gateway, conf SimpleConfig) *SimpleStrategy {
	if conf.RetryDelay <= 0 {
		conf.RetryDelay = DefaultRetryDelay
	}
	gate := NewBalanceGate(l, gateway, conf.MinAmounts, conf.RetryDelay)

	return &SimpleStrategy{
		conf:    conf,
		gateway: gateway,
		gate:    gate,
		ladder:  NewLadderBuilder(l, gate, conf.Policy),
		orders:  NewOrderSubmitter(l, gateway, conf.Pair, conf.RetryDelay),
		l:       l,
	}
}

// Reconcile is a no-op: the simple strategy never cancels resting orders.
func (s *SimpleStrategy) Reconcile(context.Context) error {
	return nil
}

// ProcessBaseFunds places the sell ladder when the base balance is tradeable.
func (s *SimpleStrategy) ProcessBaseFunds(ctx context.Context) error {
	return s.process(ctx, s.conf.Pair.Base, s.conf.Base, domain.SideSell)
}

// ProcessQuoteFunds places the buy ladder when the quote balance is tradeable.
func (s *SimpleStrategy) ProcessQuoteFunds(ctx context.Context) error {
	return s.process(ctx, s.conf.Pair.Quote, s.conf.Quote, domain.SideBuy)
}

func (s *SimpleStrategy) process(ctx context.Context, currency string, conf domain.SideConfig, side domain.Side) error {
	s.l.Info("Check currency balance", zap.String("currency", currency))
	ok, err := s.gate.IsTradeable(ctx, currency)
	if err != nil || !ok {
		return err
	}

	reference, err := s.ReferencePrice(ctx, side)
	if err != nil {
		return err
	}

	intents, err := s.ladder.Build(ctx, currency, reference, conf, side)
	if err != nil {
		return err
	}

	s.l.Info("Create orders", zap.String("side", side.String()), zap.Int("count", len(intents)))
	_, err = s.orders.Submit(ctx, intents)

	return err
}

// ReferencePrice returns the best bid for buys and the best ask for sells.
func (s *SimpleStrategy) ReferencePrice(ctx context.Context, side domain.Side) (decimal.Decimal, error) {
	top, err := s.gateway.GetOrderBookTop(ctx, s.conf.Pair, side)
	if err != nil {
		return decimal.Zero, classifyErr(err, s.conf.RetryDelay, "failed to get top of %s book", side)
	}

	return top.Price, nil
}
