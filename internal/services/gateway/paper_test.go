package gateway

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/madmis/kuna-bot/internal/domain"
	"github.com/madmis/kuna-bot/internal/storage/paperstate"
)

var btcuah = domain.Pair{Base: "btc", Quote: "uah"}

type fakeMarket struct {
	bid, ask domain.BookLevel
	ticker   domain.Ticker
	err      error
}

func (m *fakeMarket) GetOrderBookTop(_ context.Context, _ domain.Pair, side domain.Side) (domain.BookLevel, error) {
	if m.err != nil {
		return domain.BookLevel{}, m.err
	}
	if side == domain.SideBuy {
		return m.bid, nil
	}
	return m.ask, nil
}

func (m *fakeMarket) GetTicker(context.Context, domain.Pair) (domain.Ticker, error) {
	return m.ticker, m.err
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newMarket(bid, ask string) *fakeMarket {
	return &fakeMarket{
		bid: domain.BookLevel{Price: dec(bid), Volume: dec("1")},
		ask: domain.BookLevel{Price: dec(ask), Volume: dec("1")},
	}
}

func newPaper(t *testing.T, market MarketSource, store stateStore) *Paper {
	t.Helper()

	p, err := NewPaper(zap.NewNop(), btcuah, market, map[string]decimal.Decimal{
		"BTC": dec("1"),
		"UAH": dec("10000"),
	}, store)
	require.NoError(t, err)

	return p
}

func TestPaper_PlaceOrderLocksFunds(t *testing.T) {
	ctx := context.Background()
	p := newPaper(t, newMarket("100", "110"), nil)

	order, err := p.PlaceOrder(ctx, btcuah, domain.SideBuy, dec("10"), dec("90"))
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, domain.OrderStateOpen, order.State)

	balance, err := p.GetBalance(ctx, "uah")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("9100")), "got %s", balance)

	active, err := p.GetActiveOrders(ctx, btcuah, domain.SideBuy)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, order.ID, active[0].ID)

	sells, err := p.GetActiveOrders(ctx, btcuah, domain.SideSell)
	require.NoError(t, err)
	assert.Empty(t, sells)
}

func TestPaper_PlaceOrderRejects(t *testing.T) {
	ctx := context.Background()
	p := newPaper(t, newMarket("100", "110"), nil)

	_, err := p.PlaceOrder(ctx, btcuah, domain.SideSell, decimal.Zero, dec("100"))
	assert.ErrorIs(t, err, domain.ErrOrderRejected)

	_, err = p.PlaceOrder(ctx, btcuah, domain.SideSell, dec("2"), dec("100"))
	assert.ErrorIs(t, err, domain.ErrOrderRejected, "more than the wallet holds")

	_, err = p.PlaceOrder(ctx, domain.Pair{Base: "eth", Quote: "uah"}, domain.SideSell, dec("1"), dec("100"))
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
}

func TestPaper_FillWhenBookCrosses(t *testing.T) {
	ctx := context.Background()
	market := newMarket("100", "110")
	p := newPaper(t, market, nil)

	_, err := p.PlaceOrder(ctx, btcuah, domain.SideSell, dec("0.5"), dec("120"))
	require.NoError(t, err)

	history, err := p.GetTradeHistory(ctx, btcuah)
	require.NoError(t, err)
	assert.Empty(t, history)

	market.bid.Price = dec("121")

	history, err = p.GetTradeHistory(ctx, btcuah)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.SideSell, history[0].Side)
	assert.True(t, history[0].Price.Equal(dec("120")))

	quote, err := p.GetBalance(ctx, "uah")
	require.NoError(t, err)
	assert.True(t, quote.Equal(dec("10060")), "got %s", quote)

	base, err := p.GetBalance(ctx, "btc")
	require.NoError(t, err)
	assert.True(t, base.Equal(dec("0.5")), "got %s", base)

	active, err := p.GetActiveOrders(ctx, btcuah, domain.SideSell)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPaper_CancelOrderReleasesFunds(t *testing.T) {
	ctx := context.Background()
	p := newPaper(t, newMarket("100", "110"), nil)

	order, err := p.PlaceOrder(ctx, btcuah, domain.SideSell, dec("0.4"), dec("200"))
	require.NoError(t, err)

	require.NoError(t, p.CancelOrder(ctx, btcuah, order.ID))

	base, err := p.GetBalance(ctx, "btc")
	require.NoError(t, err)
	assert.True(t, base.Equal(dec("1")), "got %s", base)

	err = p.CancelOrder(ctx, btcuah, order.ID)
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
}

func TestPaper_OrderBookTopIncludesOwnOrders(t *testing.T) {
	ctx := context.Background()
	p := newPaper(t, newMarket("100", "110"), nil)

	order, err := p.PlaceOrder(ctx, btcuah, domain.SideBuy, dec("1"), dec("105"))
	require.NoError(t, err)

	top, err := p.GetOrderBookTop(ctx, btcuah, domain.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, order.ID, top.ID)
	assert.True(t, top.Matches(order))

	_, err = p.PlaceOrder(ctx, btcuah, domain.SideBuy, dec("1"), dec("95"))
	require.NoError(t, err)

	top, err = p.GetOrderBookTop(ctx, btcuah, domain.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, order.ID, top.ID, "the better own order stays on top")

	ask, err := p.GetOrderBookTop(ctx, btcuah, domain.SideSell)
	require.NoError(t, err)
	assert.Empty(t, ask.ID)
	assert.True(t, ask.Price.Equal(dec("110")))
}

func TestPaper_EmptyMarketBook(t *testing.T) {
	ctx := context.Background()
	market := &fakeMarket{err: domain.ErrEmptyOrderBook}
	p := newPaper(t, market, nil)

	_, err := p.GetOrderBookTop(ctx, btcuah, domain.SideSell)
	assert.ErrorIs(t, err, domain.ErrEmptyOrderBook)
}

func TestPaper_RestoresState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := paperstate.NewStore(dir, btcuah.ID())
	require.NoError(t, err)

	p := newPaper(t, newMarket("100", "110"), store)
	order, err := p.PlaceOrder(ctx, btcuah, domain.SideBuy, dec("2"), dec("50"))
	require.NoError(t, err)
	require.NoError(t, p.Close())

	store, err = paperstate.NewStore(dir, btcuah.ID())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	restored, err := NewPaper(zap.NewNop(), btcuah, newMarket("100", "110"), map[string]decimal.Decimal{"uah": dec("1")}, store)
	require.NoError(t, err)

	balance, err := restored.GetBalance(ctx, "uah")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("9900")), "seed balances must not override saved state, got %s", balance)

	active, err := restored.GetActiveOrders(ctx, btcuah, domain.SideBuy)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, order.ID, active[0].ID)
	assert.True(t, active[0].Price.Equal(dec("50")))
}

func TestNewPaper_RequiresMarket(t *testing.T) {
	_, err := NewPaper(zap.NewNop(), btcuah, nil, nil, nil)
	require.Error(t, err)
}

// memStore state store holding a fixed state.
type memStore struct {
	state *paperstate.State
}

func (s *memStore) Load() (*paperstate.State, error) { return s.state, nil }

func (s *memStore) Save(state paperstate.State) error {
	s.state = &state
	return nil
}

func (s *memStore) Close() error { return nil }

func TestNewPaper_RejectsCorruptState(t *testing.T) {
	tests := []struct {
		name  string
		state paperstate.State
	}{
		{
			name:  "other pair",
			state: paperstate.State{Pair: "ethuah", Wallet: map[string]string{"uah": "100"}},
		},
		{
			name: "order side",
			state: paperstate.State{Pair: "btcuah", Orders: []paperstate.StoredOrder{
				{ID: "o1", Side: "hold", Price: "100", Volume: "1", State: "open"},
			}},
		},
		{
			name: "trade side",
			state: paperstate.State{Pair: "btcuah", Trades: []paperstate.StoredTrade{
				{ID: "t1", OrderID: "o1", Side: "", Price: "100", Volume: "1"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := tt.state
			_, err := NewPaper(zap.NewNop(), btcuah, newMarket("100", "110"), nil, &memStore{state: &state})
			require.Error(t, err)
		})
	}
}

func TestNewPaper_RestoresMatchingPair(t *testing.T) {
	store := &memStore{state: &paperstate.State{
		Pair:   "btcuah",
		Wallet: map[string]string{"uah": "700"},
		Locked: map[string]string{"uah": "300"},
		Orders: []paperstate.StoredOrder{{ID: "o1", Side: "buy", Price: "60", Volume: "5", State: "open"}},
	}}

	p, err := NewPaper(zap.NewNop(), btcuah, newMarket("50", "110"), nil, store)
	require.NoError(t, err)

	active, err := p.GetActiveOrders(context.Background(), btcuah, domain.SideBuy)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "o1", active[0].ID)
}
