package strategy

import (
	"context"
	"strings"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LadderBuilder computes order ladders from the live balance of a currency.
type LadderBuilder struct {
	gate   *BalanceGate
	policy domain.TruncationPolicy
	l      *zap.Logger
}

// NewLadderBuilder creates a LadderBuilder.
func NewLadderBuilder(l *zap.Logger, gate *BalanceGate, policy domain.TruncationPolicy) *LadderBuilder {
	return &LadderBuilder{gate: gate, policy: policy, l: l}
}

// Build fetches the balance of currency and spreads it over the configured margins
// around the reference price.
func (b *LadderBuilder) Build(ctx context.Context, currency string, reference decimal.Decimal,
	conf domain.SideConfig, side domain.Side) ([]domain.OrderIntent, error) {
	margins := make([]string, 0, len(conf.Margins))
	for _, m := range conf.Margins {
		margins = append(margins, m.String())
	}
	b.l.Info("Ladder configuration",
		zap.String("currency", currency),
		zap.String("boundary", conf.Boundary.String()),
		zap.Int("orders_count", len(conf.Margins)),
		zap.String("margin", strings.Join(margins, ", ")),
	)

	balance, err := b.gate.Balance(ctx, currency)
	if err != nil {
		return nil, err
	}

	ladder, err := domain.BuildLadder(domain.LadderInput{
		Balance:        balance,
		MinAmount:      b.gate.MinAmount(currency),
		ReferencePrice: reference,
		Boundary:       conf.Boundary,
		Margins:        conf.Margins,
		Side:           side,
		Policy:         b.policy,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s ladder", side)
	}

	if ladder.BelowBoundary {
		b.l.Info("Balance below boundary, ladder truncated",
			zap.String("balance", balance.String()),
			zap.String("policy", string(b.policy)),
		)
	}
	if ladder.Collapsed {
		b.l.Info("Volume per order below minimum, placing a single order",
			zap.String("balance", balance.String()),
			zap.String("min_amount", b.gate.MinAmount(currency).String()),
		)
	}

	return ladder.Intents, nil
}
