package gateway

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/madmis/kuna-bot/internal/domain"
)

const (
	binanceDepthLimit   = 5
	binanceClientPrefix = "kuna-"
)

// Binance spot gateway. Order book levels are aggregated, so they carry no order ids.
type Binance struct {
	client *binance.Client
}

// NewBinance creates a gateway over an authenticated client. The client's HTTP
// transport is wrapped so authentication and server failures keep their status.
func NewBinance(client *binance.Client) *Binance {
	client.HTTPClient = withStatusTransport(client.HTTPClient)

	return &Binance{client: client}
}

// NewBinanceFromKeys creates a gateway with a new client.
func NewBinanceFromKeys(apiKey, secretKey string) *Binance {
	return NewBinance(binance.NewClient(apiKey, secretKey))
}

func (g *Binance) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	account, err := g.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, classifyBinanceErr(err, "failed to get binance account balance")
	}

	for _, balance := range account.Balances {
		if strings.EqualFold(balance.Asset, currency) {
			return parseDecimal(balance.Free, "free")
		}
	}

	return decimal.Zero, nil
}

func (g *Binance) GetOrderBookTop(ctx context.Context, pair domain.Pair, side domain.Side) (domain.BookLevel, error) {
	depth, err := g.client.NewDepthService().Symbol(pair.Symbol()).Limit(binanceDepthLimit).Do(ctx)
	if err != nil {
		return domain.BookLevel{}, classifyBinanceErr(err, "failed to get binance order book")
	}

	var price, quantity string
	switch side {
	case domain.SideBuy:
		if len(depth.Bids) == 0 {
			return domain.BookLevel{}, errors.Wrapf(domain.ErrEmptyOrderBook, "%s bids", pair.Symbol())
		}
		price, quantity = depth.Bids[0].Price, depth.Bids[0].Quantity
	case domain.SideSell:
		if len(depth.Asks) == 0 {
			return domain.BookLevel{}, errors.Wrapf(domain.ErrEmptyOrderBook, "%s asks", pair.Symbol())
		}
		price, quantity = depth.Asks[0].Price, depth.Asks[0].Quantity
	default:
		return domain.BookLevel{}, errors.Errorf("invalid side %q", side)
	}

	return bookLevel("", price, quantity)
}

func (g *Binance) GetActiveOrders(ctx context.Context, pair domain.Pair, side domain.Side) ([]domain.PlacedOrder, error) {
	orders, err := g.client.NewListOpenOrdersService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return nil, classifyBinanceErr(err, "failed to list binance open orders")
	}

	res := make([]domain.PlacedOrder, 0, len(orders))
	for _, o := range orders {
		orderSide := binanceSide(o.Side)
		if orderSide != side {
			continue
		}

		price, err := parseDecimal(o.Price, "price")
		if err != nil {
			return nil, err
		}
		volume, err := parseDecimal(o.OrigQuantity, "origQty")
		if err != nil {
			return nil, err
		}

		res = append(res, domain.PlacedOrder{
			ID:        strconv.FormatInt(o.OrderID, 10),
			Pair:      pair,
			Side:      orderSide,
			Type:      strings.ToLower(string(o.Type)),
			Price:     price,
			Volume:    volume,
			State:     binanceState(o.Status),
			CreatedAt: time.UnixMilli(o.Time),
		})
	}

	return res, nil
}

func (g *Binance) GetTradeHistory(ctx context.Context, pair domain.Pair) ([]domain.Trade, error) {
	trades, err := g.client.NewListTradesService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return nil, classifyBinanceErr(err, "failed to list binance trades")
	}

	// myTrades is oldest first
	res := make([]domain.Trade, 0, len(trades))
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]

		price, err := parseDecimal(t.Price, "price")
		if err != nil {
			return nil, err
		}
		volume, err := parseDecimal(t.Quantity, "qty")
		if err != nil {
			return nil, err
		}

		side := domain.SideSell
		if t.IsBuyer {
			side = domain.SideBuy
		}

		res = append(res, domain.Trade{
			ID:         strconv.FormatInt(t.ID, 10),
			OrderID:    strconv.FormatInt(t.OrderID, 10),
			Side:       side,
			Price:      price,
			Volume:     volume,
			ExecutedAt: time.UnixMilli(t.Time),
		})
	}

	return res, nil
}

func (g *Binance) PlaceOrder(ctx context.Context, pair domain.Pair, side domain.Side, volume, price decimal.Decimal) (domain.PlacedOrder, error) {
	if !volume.IsPositive() || !price.IsPositive() {
		return domain.PlacedOrder{}, errors.Wrapf(domain.ErrOrderRejected, "volume %s price %s", volume, price)
	}

	orderSide := binance.SideTypeBuy
	if side == domain.SideSell {
		orderSide = binance.SideTypeSell
	}

	resp, err := g.client.NewCreateOrderService().Symbol(pair.Symbol()).
		Side(orderSide).Type(binance.OrderTypeLimit).
		TimeInForce(binance.TimeInForceTypeGTC).
		Quantity(volume.String()).
		Price(price.String()).
		NewClientOrderID(binanceClientPrefix + uuid.NewString()).
		Do(ctx)
	if err != nil {
		return domain.PlacedOrder{}, classifyBinanceErr(err, "failed to create binance order")
	}

	return domain.PlacedOrder{
		ID:        strconv.FormatInt(resp.OrderID, 10),
		Pair:      pair,
		Side:      side,
		Type:      strings.ToLower(string(resp.Type)),
		Price:     price,
		Volume:    volume,
		State:     binanceState(resp.Status),
		CreatedAt: time.UnixMilli(resp.TransactTime),
	}, nil
}

func (g *Binance) CancelOrder(ctx context.Context, pair domain.Pair, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid binance order id %q", orderID)
	}

	if _, err := g.client.NewCancelOrderService().Symbol(pair.Symbol()).OrderID(id).Do(ctx); err != nil {
		return classifyBinanceErr(err, "failed to cancel binance order")
	}

	return nil
}

func (g *Binance) GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	stats, err := g.client.NewListPriceChangeStatsService().Symbol(pair.Symbol()).Do(ctx)
	if err != nil {
		return domain.Ticker{}, classifyBinanceErr(err, "failed to get binance 24h stats")
	}
	if len(stats) == 0 {
		return domain.Ticker{}, errors.Wrapf(domain.ErrMalformed, "binance returned no stats for %s", pair.Symbol())
	}

	s := stats[0]
	return ticker(s.HighPrice, s.LowPrice, s.LastPrice, s.BidPrice, s.AskPrice)
}

func binanceSide(s binance.SideType) domain.Side {
	if s == binance.SideTypeSell {
		return domain.SideSell
	}
	return domain.SideBuy
}

func binanceState(s binance.OrderStatusType) domain.OrderState {
	switch s {
	case binance.OrderStatusTypeFilled:
		return domain.OrderStateFilled
	case binance.OrderStatusTypeCanceled, binance.OrderStatusTypeRejected, binance.OrderStatusTypeExpired:
		return domain.OrderStateCanceled
	default:
		return domain.OrderStateOpen
	}
}

func bookLevel(id, price, quantity string) (domain.BookLevel, error) {
	p, err := parseDecimal(price, "price")
	if err != nil {
		return domain.BookLevel{}, err
	}
	q, err := parseDecimal(quantity, "quantity")
	if err != nil {
		return domain.BookLevel{}, err
	}

	return domain.BookLevel{ID: id, Price: p, Volume: q}, nil
}

func ticker(high, low, last, bid, ask string) (domain.Ticker, error) {
	var t domain.Ticker
	fields := []struct {
		dst   *decimal.Decimal
		value string
		name  string
	}{
		{&t.High, high, "high"},
		{&t.Low, low, "low"},
		{&t.Last, last, "last"},
		{&t.Buy, bid, "bid"},
		{&t.Sell, ask, "ask"},
	}

	for _, f := range fields {
		d, err := parseDecimal(f.value, f.name)
		if err != nil {
			return domain.Ticker{}, err
		}
		*f.dst = d
	}

	return t, nil
}
