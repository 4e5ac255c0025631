package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/madmis/kuna-bot/internal/domain"
)

const bybitDepthLimit = 1

// Bybit spot gateway on a unified trading account.
type Bybit struct {
	client *bybit.Client
}

// NewBybit creates a gateway over an authenticated client.
func NewBybit(client *bybit.Client) *Bybit {
	return &Bybit{client: client}
}

// NewBybitFromKeys creates a gateway with a new client.
func NewBybitFromKeys(apiKey, secretKey string) *Bybit {
	return NewBybit(bybit.NewClient().WithAuth(apiKey, secretKey))
}

func (g *Bybit) GetBalance(_ context.Context, currency string) (decimal.Decimal, error) {
	coin := bybit.Coin(strings.ToUpper(currency))
	res, err := g.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5UNIFIED, []bybit.Coin{coin})
	if err != nil {
		return decimal.Zero, classifyBybitErr(err, "failed to get bybit wallet balance")
	}

	for _, account := range res.Result.List {
		for _, c := range account.Coin {
			if !strings.EqualFold(string(c.Coin), currency) {
				continue
			}

			total, err := parseDecimal(c.WalletBalance, "walletBalance")
			if err != nil {
				return decimal.Zero, err
			}
			locked, err := parseDecimal(c.Locked, "locked")
			if err != nil {
				return decimal.Zero, err
			}

			return total.Sub(locked), nil
		}
	}

	return decimal.Zero, nil
}

func (g *Bybit) GetOrderBookTop(_ context.Context, pair domain.Pair, side domain.Side) (domain.BookLevel, error) {
	limit := bybitDepthLimit
	res, err := g.client.V5().Market().GetOrderbook(bybit.V5GetOrderbookParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(pair.Symbol()),
		Limit:    &limit,
	})
	if err != nil {
		return domain.BookLevel{}, classifyBybitErr(err, "failed to get bybit order book")
	}

	switch side {
	case domain.SideBuy:
		if len(res.Result.Bids) == 0 {
			return domain.BookLevel{}, errors.Wrapf(domain.ErrEmptyOrderBook, "%s bids", pair.Symbol())
		}
		return bookLevel("", res.Result.Bids[0].Price, res.Result.Bids[0].Quantity)
	case domain.SideSell:
		if len(res.Result.Asks) == 0 {
			return domain.BookLevel{}, errors.Wrapf(domain.ErrEmptyOrderBook, "%s asks", pair.Symbol())
		}
		return bookLevel("", res.Result.Asks[0].Price, res.Result.Asks[0].Quantity)
	default:
		return domain.BookLevel{}, errors.Errorf("invalid side %q", side)
	}
}

func (g *Bybit) GetActiveOrders(_ context.Context, pair domain.Pair, side domain.Side) ([]domain.PlacedOrder, error) {
	symbol := bybit.SymbolV5(pair.Symbol())
	res, err := g.client.V5().Order().GetOpenOrders(bybit.V5GetOpenOrdersParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &symbol,
	})
	if err != nil {
		return nil, classifyBybitErr(err, "failed to list bybit open orders")
	}

	orders := make([]domain.PlacedOrder, 0, len(res.Result.List))
	for _, o := range res.Result.List {
		orderSide := bybitSide(o.Side)
		if orderSide != side {
			continue
		}

		price, err := parseDecimal(o.Price, "price")
		if err != nil {
			return nil, err
		}
		volume, err := parseDecimal(o.Qty, "qty")
		if err != nil {
			return nil, err
		}
		created, err := parseMillis(o.CreatedTime, "createdTime")
		if err != nil {
			return nil, err
		}

		orders = append(orders, domain.PlacedOrder{
			ID:        o.OrderID,
			Pair:      pair,
			Side:      orderSide,
			Type:      strings.ToLower(string(o.OrderType)),
			Price:     price,
			Volume:    volume,
			State:     domain.OrderStateOpen,
			CreatedAt: time.UnixMilli(created),
		})
	}

	return orders, nil
}

func (g *Bybit) GetTradeHistory(_ context.Context, pair domain.Pair) ([]domain.Trade, error) {
	symbol := bybit.SymbolV5(pair.Symbol())
	res, err := g.client.V5().Execution().GetExecutionList(bybit.V5GetExecutionParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &symbol,
	})
	if err != nil {
		return nil, classifyBybitErr(err, "failed to list bybit executions")
	}

	// executions are returned newest first
	trades := make([]domain.Trade, 0, len(res.Result.List))
	for _, e := range res.Result.List {
		price, err := parseDecimal(e.ExecPrice, "execPrice")
		if err != nil {
			return nil, err
		}
		volume, err := parseDecimal(e.ExecQty, "execQty")
		if err != nil {
			return nil, err
		}
		executed, err := parseMillis(e.ExecTime, "execTime")
		if err != nil {
			return nil, err
		}

		trades = append(trades, domain.Trade{
			ID:         e.ExecID,
			OrderID:    e.OrderID,
			Side:       bybitSide(e.Side),
			Price:      price,
			Volume:     volume,
			ExecutedAt: time.UnixMilli(executed),
		})
	}

	return trades, nil
}

func (g *Bybit) PlaceOrder(_ context.Context, pair domain.Pair, side domain.Side, volume, price decimal.Decimal) (domain.PlacedOrder, error) {
	if !volume.IsPositive() || !price.IsPositive() {
		return domain.PlacedOrder{}, errors.Wrapf(domain.ErrOrderRejected, "volume %s price %s", volume, price)
	}

	orderSide := bybit.SideBuy
	if side == domain.SideSell {
		orderSide = bybit.SideSell
	}
	priceStr := price.String()
	linkID := uuid.NewString()

	res, err := g.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:    bybit.CategoryV5Spot,
		Symbol:      bybit.SymbolV5(pair.Symbol()),
		Side:        orderSide,
		OrderType:   bybit.OrderTypeLimit,
		Qty:         volume.String(),
		Price:       &priceStr,
		OrderLinkID: &linkID,
	})
	if err != nil {
		return domain.PlacedOrder{}, classifyBybitErr(err, "failed to create bybit order")
	}

	return domain.PlacedOrder{
		ID:        res.Result.OrderID,
		Pair:      pair,
		Side:      side,
		Type:      "limit",
		Price:     price,
		Volume:    volume,
		State:     domain.OrderStateOpen,
		CreatedAt: time.Now(),
	}, nil
}

func (g *Bybit) CancelOrder(_ context.Context, pair domain.Pair, orderID string) error {
	_, err := g.client.V5().Order().CancelOrder(bybit.V5CancelOrderParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(pair.Symbol()),
		OrderID:  &orderID,
	})
	if err != nil {
		return classifyBybitErr(err, "failed to cancel bybit order")
	}

	return nil
}

func (g *Bybit) GetTicker(_ context.Context, pair domain.Pair) (domain.Ticker, error) {
	symbol := bybit.SymbolV5(pair.Symbol())
	res, err := g.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &symbol,
	})
	if err != nil {
		return domain.Ticker{}, classifyBybitErr(err, "failed to get bybit ticker")
	}
	if res.Result.Spot == nil || len(res.Result.Spot.List) == 0 {
		return domain.Ticker{}, errors.Wrapf(domain.ErrMalformed, "bybit returned no ticker for %s", pair.Symbol())
	}

	s := res.Result.Spot.List[0]
	return ticker(s.HighPrice24H, s.LowPrice24H, s.LastPrice, s.Bid1Price, s.Ask1Price)
}

func bybitSide(s bybit.Side) domain.Side {
	if s == bybit.SideSell {
		return domain.SideSell
	}
	return domain.SideBuy
}
