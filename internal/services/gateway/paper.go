package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/madmis/kuna-bot/internal/storage/paperstate"
)

// MarketSource read-only market data the paper exchange trades against.
type MarketSource interface {
	GetOrderBookTop(ctx context.Context, pair domain.Pair, side domain.Side) (domain.BookLevel, error)
	GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
}

type stateStore interface {
	Load() (*paperstate.State, error)
	Save(state paperstate.State) error
	Close() error
}

// Paper simulated exchange for a single pair. Limit orders lock funds when placed
// and fill at their own price once the market book crosses them.
type Paper struct {
	mu     sync.Mutex
	l      *zap.Logger
	pair   domain.Pair
	market MarketSource
	store  stateStore
	now    func() time.Time

	wallet map[string]decimal.Decimal
	locked map[string]decimal.Decimal
	orders []domain.PlacedOrder
	// trades newest first
	trades []domain.Trade
}

// NewPaper creates a paper exchange. The saved state is restored when the store
// holds one, otherwise the wallet is seeded with balances. store may be nil.
func NewPaper(l *zap.Logger, pair domain.Pair, market MarketSource, balances map[string]decimal.Decimal, store stateStore) (*Paper, error) {
	if l == nil {
		l = zap.NewNop()
	}
	if market == nil {
		return nil, errors.New("market source is required for paper trading")
	}

	p := &Paper{
		l:      l,
		pair:   pair,
		market: market,
		store:  store,
		now:    time.Now,
		wallet: make(map[string]decimal.Decimal),
		locked: make(map[string]decimal.Decimal),
	}
	for currency, amount := range balances {
		p.wallet[strings.ToLower(currency)] = amount
	}

	if err := p.restore(); err != nil {
		return nil, err
	}

	l.Info("Paper exchange ready",
		zap.String("pair", pair.String()),
		zap.String(pair.Base, p.wallet[pair.Base].String()),
		zap.String(pair.Quote, p.wallet[pair.Quote].String()),
		zap.Int("open_orders", len(p.orders)),
	)

	return p, nil
}

func (p *Paper) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	if err := p.matchOrders(ctx); err != nil {
		return decimal.Zero, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.wallet[strings.ToLower(currency)], nil
}

// GetOrderBookTop returns the market top, replaced by an own resting order when it
// is at least as good.
func (p *Paper) GetOrderBookTop(ctx context.Context, pair domain.Pair, side domain.Side) (domain.BookLevel, error) {
	level, marketErr := p.market.GetOrderBookTop(ctx, pair, side)
	if marketErr != nil && !errors.Is(marketErr, domain.ErrEmptyOrderBook) {
		return domain.BookLevel{}, marketErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	own, ok := p.bestOwn(side)
	if !ok {
		return level, marketErr
	}
	if marketErr != nil || !worse(side, own.Price, level.Price) {
		return domain.BookLevel{ID: own.ID, Price: own.Price, Volume: own.Volume}, nil
	}

	return level, nil
}

func (p *Paper) GetActiveOrders(ctx context.Context, pair domain.Pair, side domain.Side) ([]domain.PlacedOrder, error) {
	if err := p.matchOrders(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	res := make([]domain.PlacedOrder, 0, len(p.orders))
	for _, o := range p.orders {
		if o.Side == side && o.Pair == pair {
			res = append(res, o)
		}
	}

	return res, nil
}

func (p *Paper) GetTradeHistory(ctx context.Context, _ domain.Pair) ([]domain.Trade, error) {
	if err := p.matchOrders(ctx); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	res := make([]domain.Trade, len(p.trades))
	copy(res, p.trades)

	return res, nil
}

func (p *Paper) PlaceOrder(_ context.Context, pair domain.Pair, side domain.Side, volume, price decimal.Decimal) (domain.PlacedOrder, error) {
	if pair != p.pair {
		return domain.PlacedOrder{}, errors.Wrapf(domain.ErrOrderRejected, "paper exchange trades %s only", p.pair)
	}
	if !volume.IsPositive() || !price.IsPositive() {
		return domain.PlacedOrder{}, errors.Wrapf(domain.ErrOrderRejected, "volume %s price %s", volume, price)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	currency, amount := p.lockAmount(side, volume, price)
	if p.wallet[currency].LessThan(amount) {
		return domain.PlacedOrder{}, errors.Wrapf(domain.ErrOrderRejected,
			"insufficient %s: need %s, have %s", currency, amount, p.wallet[currency])
	}
	p.wallet[currency] = p.wallet[currency].Sub(amount)
	p.locked[currency] = p.locked[currency].Add(amount)

	order := domain.PlacedOrder{
		ID:        uuid.NewString(),
		Pair:      pair,
		Side:      side,
		Type:      "limit",
		Price:     price,
		Volume:    volume,
		State:     domain.OrderStateOpen,
		CreatedAt: p.now().UTC(),
	}
	p.orders = append(p.orders, order)
	p.persist()

	return order, nil
}

func (p *Paper) CancelOrder(_ context.Context, _ domain.Pair, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, o := range p.orders {
		if o.ID != orderID {
			continue
		}

		currency, amount := p.lockAmount(o.Side, o.Volume, o.Price)
		p.locked[currency] = p.locked[currency].Sub(amount)
		p.wallet[currency] = p.wallet[currency].Add(amount)
		p.orders = append(p.orders[:i], p.orders[i+1:]...)
		p.persist()

		return nil
	}

	return errors.Wrapf(domain.ErrOrderRejected, "order %s not found", orderID)
}

func (p *Paper) GetTicker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	return p.market.GetTicker(ctx, pair)
}

// Close closes the state store.
func (p *Paper) Close() error {
	if p.store == nil {
		return nil
	}

	return p.store.Close()
}

// matchOrders fills every resting order the market book crosses.
func (p *Paper) matchOrders(ctx context.Context) error {
	p.mu.Lock()
	hasBuys, hasSells := false, false
	for _, o := range p.orders {
		hasBuys = hasBuys || o.Side == domain.SideBuy
		hasSells = hasSells || o.Side == domain.SideSell
	}
	p.mu.Unlock()

	var ask, bid *domain.BookLevel
	if hasBuys {
		level, err := p.marketTop(ctx, domain.SideSell)
		if err != nil {
			return err
		}
		ask = level
	}
	if hasSells {
		level, err := p.marketTop(ctx, domain.SideBuy)
		if err != nil {
			return err
		}
		bid = level
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	filled := false
	remaining := p.orders[:0]
	for _, o := range p.orders {
		crossed := (o.Side == domain.SideBuy && ask != nil && ask.Price.LessThanOrEqual(o.Price)) ||
			(o.Side == domain.SideSell && bid != nil && bid.Price.GreaterThanOrEqual(o.Price))
		if !crossed {
			remaining = append(remaining, o)
			continue
		}

		p.fill(o)
		filled = true
	}
	p.orders = remaining

	if filled {
		p.persist()
	}

	return nil
}

func (p *Paper) marketTop(ctx context.Context, side domain.Side) (*domain.BookLevel, error) {
	level, err := p.market.GetOrderBookTop(ctx, p.pair, side)
	if errors.Is(err, domain.ErrEmptyOrderBook) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get market data for paper orders")
	}

	return &level, nil
}

func (p *Paper) fill(o domain.PlacedOrder) {
	quote := o.Volume.Mul(o.Price).Truncate(domain.Scale)

	if o.Side == domain.SideBuy {
		p.locked[p.pair.Quote] = p.locked[p.pair.Quote].Sub(quote)
		p.wallet[p.pair.Base] = p.wallet[p.pair.Base].Add(o.Volume)
	} else {
		p.locked[p.pair.Base] = p.locked[p.pair.Base].Sub(o.Volume)
		p.wallet[p.pair.Quote] = p.wallet[p.pair.Quote].Add(quote)
	}

	trade := domain.Trade{
		ID:         uuid.NewString(),
		OrderID:    o.ID,
		Side:       o.Side,
		Price:      o.Price,
		Volume:     o.Volume,
		ExecutedAt: p.now().UTC(),
	}
	p.trades = append([]domain.Trade{trade}, p.trades...)

	p.l.Info("Paper order filled",
		zap.String("id", o.ID),
		zap.String("side", o.Side.String()),
		zap.String("price", o.Price.String()),
		zap.String("volume", o.Volume.String()),
	)
}

func (p *Paper) lockAmount(side domain.Side, volume, price decimal.Decimal) (string, decimal.Decimal) {
	if side == domain.SideBuy {
		return p.pair.Quote, volume.Mul(price).Truncate(domain.Scale)
	}
	return p.pair.Base, volume
}

func (p *Paper) bestOwn(side domain.Side) (domain.PlacedOrder, bool) {
	var best domain.PlacedOrder
	found := false
	for _, o := range p.orders {
		if o.Side != side {
			continue
		}
		if !found || worse(side, best.Price, o.Price) {
			best, found = o, true
		}
	}

	return best, found
}

// worse reports whether price a is a worse quote than b on the side.
func worse(side domain.Side, a, b decimal.Decimal) bool {
	if side == domain.SideBuy {
		return a.LessThan(b)
	}
	return a.GreaterThan(b)
}

func (p *Paper) persist() {
	if p.store == nil {
		return
	}

	if err := p.store.Save(p.snapshot()); err != nil {
		p.l.Warn("failed to persist paper state", zap.Error(err))
	}
}

func (p *Paper) snapshot() paperstate.State {
	state := paperstate.State{
		Pair:    p.pair.ID(),
		Wallet:  encodeAmounts(p.wallet),
		Locked:  encodeAmounts(p.locked),
		Orders:  make([]paperstate.StoredOrder, 0, len(p.orders)),
		Trades:  make([]paperstate.StoredTrade, 0, len(p.trades)),
		SavedAt: p.now().UTC(),
	}

	for _, o := range p.orders {
		state.Orders = append(state.Orders, paperstate.StoredOrder{
			ID:        o.ID,
			Side:      o.Side.String(),
			Price:     o.Price.String(),
			Volume:    o.Volume.String(),
			State:     string(o.State),
			CreatedAt: o.CreatedAt,
		})
	}
	for _, t := range p.trades {
		state.Trades = append(state.Trades, paperstate.StoredTrade{
			ID:         t.ID,
			OrderID:    t.OrderID,
			Side:       t.Side.String(),
			Price:      t.Price.String(),
			Volume:     t.Volume.String(),
			ExecutedAt: t.ExecutedAt,
		})
	}

	return state
}

func (p *Paper) restore() error {
	if p.store == nil {
		return nil
	}

	state, err := p.store.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load paper state")
	}
	if state == nil {
		p.persist()
		return nil
	}
	if state.Pair != p.pair.ID() {
		return errors.Errorf("paper state belongs to pair %q, not %q", state.Pair, p.pair.ID())
	}

	wallet, err := decodeAmounts(state.Wallet)
	if err != nil {
		return errors.Wrap(err, "failed to restore paper wallet")
	}
	locked, err := decodeAmounts(state.Locked)
	if err != nil {
		return errors.Wrap(err, "failed to restore paper locked funds")
	}

	orders := make([]domain.PlacedOrder, 0, len(state.Orders))
	for _, o := range state.Orders {
		price, err := decimal.NewFromString(o.Price)
		if err != nil {
			return errors.Wrapf(err, "failed to restore paper order %s price", o.ID)
		}
		volume, err := decimal.NewFromString(o.Volume)
		if err != nil {
			return errors.Wrapf(err, "failed to restore paper order %s volume", o.ID)
		}
		if !domain.Side(o.Side).IsValid() {
			return errors.Errorf("failed to restore paper order %s: invalid side %q", o.ID, o.Side)
		}
		orders = append(orders, domain.PlacedOrder{
			ID:        o.ID,
			Pair:      p.pair,
			Side:      domain.Side(o.Side),
			Type:      "limit",
			Price:     price,
			Volume:    volume,
			State:     domain.OrderState(o.State),
			CreatedAt: o.CreatedAt,
		})
	}

	trades := make([]domain.Trade, 0, len(state.Trades))
	for _, t := range state.Trades {
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			return errors.Wrapf(err, "failed to restore paper trade %s price", t.ID)
		}
		volume, err := decimal.NewFromString(t.Volume)
		if err != nil {
			return errors.Wrapf(err, "failed to restore paper trade %s volume", t.ID)
		}
		if !domain.Side(t.Side).IsValid() {
			return errors.Errorf("failed to restore paper trade %s: invalid side %q", t.ID, t.Side)
		}
		trades = append(trades, domain.Trade{
			ID:         t.ID,
			OrderID:    t.OrderID,
			Side:       domain.Side(t.Side),
			Price:      price,
			Volume:     volume,
			ExecutedAt: t.ExecutedAt,
		})
	}

	p.wallet, p.locked, p.orders, p.trades = wallet, locked, orders, trades
	p.l.Info("Paper state restored", zap.Time("saved_at", state.SavedAt))

	return nil
}

func encodeAmounts(amounts map[string]decimal.Decimal) map[string]string {
	res := make(map[string]string, len(amounts))
	for currency, amount := range amounts {
		res[currency] = amount.String()
	}
	return res
}

func decodeAmounts(amounts map[string]string) (map[string]decimal.Decimal, error) {
	res := make(map[string]decimal.Decimal, len(amounts))
	for currency, value := range amounts {
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return nil, errors.Wrapf(err, "currency %s", currency)
		}
		res[currency] = amount
	}

	return res, nil
}
