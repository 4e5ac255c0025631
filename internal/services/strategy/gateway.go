// Package strategy implements the trading decisions of the bot: which balances are
// worth trading, at which prices and volumes orders are placed, and which resting
// orders have to be closed.
package strategy

import (
	"context"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// Gateway exchange capabilities consumed by the strategies.
// Implementations wrap venue failures with the domain sentinel errors.
type Gateway interface {
	GetBalance(ctx context.Context, currency string) (decimal.Decimal, error)
	// GetOrderBookTop returns the best bid for domain.SideBuy and the best ask for domain.SideSell.
	GetOrderBookTop(ctx context.Context, pair domain.Pair, side domain.Side) (domain.BookLevel, error)
	GetActiveOrders(ctx context.Context, pair domain.Pair, side domain.Side) ([]domain.PlacedOrder, error)
	// GetTradeHistory returns own executed trades, newest first.
	GetTradeHistory(ctx context.Context, pair domain.Pair) ([]domain.Trade, error)
	PlaceOrder(ctx context.Context, pair domain.Pair, side domain.Side, volume, price decimal.Decimal) (domain.PlacedOrder, error)
	CancelOrder(ctx context.Context, pair domain.Pair, orderID string) error
	GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
}

type balanceReader interface {
	GetBalance(ctx context.Context, currency string) (decimal.Decimal, error)
}

type orderPlacer interface {
	PlaceOrder(ctx context.Context, pair domain.Pair, side domain.Side, volume, price decimal.Decimal) (domain.PlacedOrder, error)
}
