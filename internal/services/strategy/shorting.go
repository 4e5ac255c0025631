package strategy

import (
	"context"
	"time"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShortingConfig settings of the shorting strategy.
type ShortingConfig struct {
	Pair domain.Pair
	// Margin added to the last executed buy price to get the sell price.
	Margin decimal.Decimal
	// IncreaseUnit added to the best bid to get the buy price.
	IncreaseUnit decimal.Decimal
	MinAmounts   domain.MinTradeAmounts
	RetryDelay   time.Duration
}

// ShortingStrategy keeps a single buy order on top of the bid book and sells
// everything bought at a fixed margin above the last buy price.
type ShortingStrategy struct {
	conf    ShortingConfig
	gateway Gateway
	gate    *BalanceGate
	orders  *OrderSubmitter
	l       *zap.Logger
}

// NewShortingStrategy creates a ShortingStrategy.
func NewShortingStrategy(l *zap.Logger, gateway Gateway, conf ShortingConfig) *ShortingStrategy {
	if conf.RetryDelay <= 0 {
		conf.RetryDelay = DefaultRetryDelay
	}

	return &ShortingStrategy{
		conf:    conf,
		gateway: gateway,
		gate:    NewBalanceGate(l, gateway, conf.MinAmounts, conf.RetryDelay),
		orders:  NewOrderSubmitter(l, gateway, conf.Pair, conf.RetryDelay),
		l:       l,
	}
}

// Reconcile closes resting buy orders that are no longer on top of the bid book.
func (s *ShortingStrategy) Reconcile(ctx context.Context) error {
	return s.CloseNotTopBuyOrders(ctx)
}

// CloseNotTopBuyOrders cancels every active buy order except the one at the best bid.
func (s *ShortingStrategy) CloseNotTopBuyOrders(ctx context.Context) error {
	active, err := s.gateway.GetActiveOrders(ctx, s.conf.Pair, domain.SideBuy)
	if err != nil {
		return classifyErr(err, s.conf.RetryDelay, "failed to get active buy orders")
	}
	if len(active) == 0 {
		return nil
	}

	top, err := s.gateway.GetOrderBookTop(ctx, s.conf.Pair, domain.SideBuy)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyOrderBook) {
			s.l.Warn("Bid book is empty, skip closing buy orders")
			return nil
		}
		return classifyErr(err, s.conf.RetryDelay, "failed to get top of buy book")
	}

	for _, order := range active {
		if top.Matches(order) {
			continue
		}

		if err := s.gateway.CancelOrder(ctx, s.conf.Pair, order.ID); err != nil {
			return classifyErr(err, s.conf.RetryDelay, "failed to cancel buy order %s", order.ID)
		}
		s.l.Info("Buy order is not on top of the book, canceled",
			zap.String("id", order.ID),
			zap.String("price", order.Price.String()),
			zap.String("top_price", top.Price.String()),
		)
	}

	return nil
}

// ProcessBaseFunds sells the whole base balance at the last buy price plus margin.
// Without an executed buy trade there is no safe sell price and the bot stops.
func (s *ShortingStrategy) ProcessBaseFunds(ctx context.Context) error {
	base := s.conf.Pair.Base
	s.l.Info("Check base currency balance", zap.String("currency", base))
	ok, err := s.gate.IsTradeable(ctx, base)
	if err != nil || !ok {
		return err
	}

	price, err := s.SellPrice(ctx)
	if err != nil {
		return err
	}

	balance, err := s.gate.Balance(ctx, base)
	if err != nil {
		return err
	}
	volume := balance.Truncate(domain.Scale)

	s.l.Info("Create sell order",
		zap.String("price", price.String()),
		zap.String("volume", volume.String()),
		zap.String("receive", volume.Mul(price).Truncate(domain.Scale).String()),
		zap.String("receive_currency", s.conf.Pair.Quote),
	)

	_, err = s.orders.Submit(ctx, []domain.OrderIntent{{Index: 1, Side: domain.SideSell, Price: price, Volume: volume}})

	return err
}

// SellPrice returns the price of the most recent executed buy trade plus margin.
func (s *ShortingStrategy) SellPrice(ctx context.Context) (decimal.Decimal, error) {
	history, err := s.gateway.GetTradeHistory(ctx, s.conf.Pair)
	if err != nil {
		return decimal.Zero, classifyErr(err, s.conf.RetryDelay, "failed to get trade history")
	}

	last, ok := domain.LatestTrade(history, domain.SideBuy)
	if !ok {
		s.l.Error("Can not define sell price: no executed buy trades for the pair, place the sell order manually")
		return decimal.Zero, domain.NewStopError("no executed buy trades to anchor the sell price")
	}

	return last.Price.Add(s.conf.Margin).Truncate(domain.Scale), nil
}

// ProcessQuoteFunds places one buy order just above the best bid unless a buy order
// is already resting or the price is too close to the day's high.
func (s *ShortingStrategy) ProcessQuoteFunds(ctx context.Context) error {
	active, err := s.gateway.GetActiveOrders(ctx, s.conf.Pair, domain.SideBuy)
	if err != nil {
		return classifyErr(err, s.conf.RetryDelay, "failed to get active buy orders")
	}
	if len(active) > 0 {
		s.l.Info("Waiting until active buy order is executed or canceled", zap.Int("active", len(active)))
		return nil
	}

	quote := s.conf.Pair.Quote
	s.l.Info("Check quote currency balance", zap.String("currency", quote))
	ok, err := s.gate.IsTradeable(ctx, quote)
	if err != nil || !ok {
		return err
	}

	ticker, err := s.gateway.GetTicker(ctx, s.conf.Pair)
	if err != nil {
		return classifyErr(err, s.conf.RetryDelay, "failed to get ticker")
	}
	allowed := domain.AllowedBuyPrice(ticker)

	price, err := s.BuyPrice(ctx)
	if err != nil {
		return err
	}

	s.l.Info("Buy price check",
		zap.String("allowed_price", allowed.String()),
		zap.String("ticker_buy", ticker.Buy.String()),
		zap.String("ticker_high", ticker.High.String()),
		zap.String("ticker_low", ticker.Low.String()),
		zap.String("price", price.String()),
	)

	if !price.IsPositive() {
		return errors.Errorf("buy price %s is not positive", price.String())
	}

	if price.GreaterThan(allowed) {
		s.l.Warn("Buy is not allowed: price is too close to the day's high",
			zap.String("price", price.String()),
			zap.String("allowed_price", allowed.String()),
		)
		return nil
	}

	balance, err := s.gate.Balance(ctx, quote)
	if err != nil {
		return err
	}
	volume := balance.Div(price).Truncate(domain.Scale)

	s.l.Info("Create buy order", zap.String("price", price.String()), zap.String("volume", volume.String()))
	_, err = s.orders.Submit(ctx, []domain.OrderIntent{{Index: 1, Side: domain.SideBuy, Price: price, Volume: volume}})

	return err
}

// BuyPrice returns the best bid improved by the increase unit.
func (s *ShortingStrategy) BuyPrice(ctx context.Context) (decimal.Decimal, error) {
	top, err := s.gateway.GetOrderBookTop(ctx, s.conf.Pair, domain.SideBuy)
	if err != nil {
		return decimal.Zero, classifyErr(err, s.conf.RetryDelay, "failed to get top of buy book")
	}

	return top.Price.Add(s.conf.IncreaseUnit).Truncate(domain.Scale), nil
}
