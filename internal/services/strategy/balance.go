package strategy

import (
	"context"
	"time"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BalanceGate decides whether a currency balance is large enough to trade.
type BalanceGate struct {
	gateway    balanceReader
	minAmounts domain.MinTradeAmounts
	retryDelay time.Duration
	l          *zap.Logger
}

// NewBalanceGate creates a BalanceGate. A non-positive retryDelay falls back to DefaultRetryDelay.
func NewBalanceGate(l *zap.Logger, gateway balanceReader, minAmounts domain.MinTradeAmounts, retryDelay time.Duration) *BalanceGate {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	return &BalanceGate{
		gateway:    gateway,
		minAmounts: minAmounts,
		retryDelay: retryDelay,
		l:          l,
	}
}

// Balance fetches the current balance of the currency, never cached.
func (g *BalanceGate) Balance(ctx context.Context, currency string) (decimal.Decimal, error) {
	balance, err := g.gateway.GetBalance(ctx, currency)
	if err != nil {
		return decimal.Zero, classifyBalanceErr(err, currency, g.retryDelay)
	}

	return balance, nil
}

// IsTradeable reports whether the balance reaches the minimum trade amount of the currency.
func (g *BalanceGate) IsTradeable(ctx context.Context, currency string) (bool, error) {
	balance, err := g.Balance(ctx, currency)
	if err != nil {
		return false, err
	}

	minAmount := g.minAmounts.For(currency)
	if balance.LessThan(minAmount) {
		g.l.Warn("Insufficient funds to trade",
			zap.String("currency", currency),
			zap.String("balance", balance.String()),
			zap.String("min_amount", minAmount.String()),
		)
		return false, nil
	}

	g.l.Info("Funds available for trading",
		zap.String("currency", currency),
		zap.String("balance", balance.String()),
	)

	return true, nil
}

// MinAmount returns the minimum trade amount of the currency.
func (g *BalanceGate) MinAmount(currency string) decimal.Decimal {
	return g.minAmounts.For(currency)
}
