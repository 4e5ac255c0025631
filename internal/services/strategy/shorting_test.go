package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/madmis/kuna-bot/internal/domain"
	gatewayMock "github.com/madmis/kuna-bot/mocks/gateway"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createTestShortingStrategy(gw Gateway) *ShortingStrategy {
	return NewShortingStrategy(zap.NewNop(), gw, ShortingConfig{
		Pair:         btcuah,
		Margin:       decimal.NewFromInt(500),
		IncreaseUnit: decimal.NewFromInt(1),
		MinAmounts:   domain.NewMinTradeAmounts(nil),
	})
}

func TestShortingStrategy_CloseNotTopBuyOrders(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetActiveOrders", mock.Anything, btcuah, domain.SideBuy).Return([]domain.PlacedOrder{
		{ID: "1", Side: domain.SideBuy, Price: decimal.NewFromInt(99)},
		{ID: "2", Side: domain.SideBuy, Price: decimal.NewFromInt(100)},
	}, nil)
	gw.On("GetOrderBookTop", mock.Anything, btcuah, domain.SideBuy).
		Return(domain.BookLevel{ID: "2", Price: decimal.NewFromInt(100)}, nil)
	gw.On("CancelOrder", mock.Anything, btcuah, "1").Return(nil).Once()

	s := createTestShortingStrategy(gw)
	require.NoError(t, s.Reconcile(context.Background()))
	gw.AssertNotCalled(t, "CancelOrder", mock.Anything, btcuah, "2")
}

func TestShortingStrategy_CloseNotTopBuyOrders_ByPrice(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetActiveOrders", mock.Anything, btcuah, domain.SideBuy).Return([]domain.PlacedOrder{
		{ID: "a", Price: decimal.RequireFromString("100.5")},
		{ID: "b", Price: decimal.RequireFromString("101")},
	}, nil)
	gw.On("GetOrderBookTop", mock.Anything, btcuah, domain.SideBuy).
		Return(domain.BookLevel{Price: decimal.RequireFromString("101.000")}, nil)
	gw.On("CancelOrder", mock.Anything, btcuah, "a").Return(nil).Once()

	s := createTestShortingStrategy(gw)
	require.NoError(t, s.CloseNotTopBuyOrders(context.Background()))
}

func TestShortingStrategy_CloseNotTopBuyOrders_NoActiveOrders(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetActiveOrders", mock.Anything, btcuah, domain.SideBuy).Return(nil, nil)

	s := createTestShortingStrategy(gw)
	require.NoError(t, s.CloseNotTopBuyOrders(context.Background()))
	gw.AssertNotCalled(t, "GetOrderBookTop", mock.Anything, mock.Anything, mock.Anything)
}

func TestShortingStrategy_CloseNotTopBuyOrders_EmptyBook(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetActiveOrders", mock.Anything, btcuah, domain.SideBuy).
		Return([]domain.PlacedOrder{{ID: "1", Price: decimal.NewFromInt(99)}}, nil)
	gw.On("GetOrderBookTop", mock.Anything, btcuah, domain.SideBuy).
		Return(domain.BookLevel{}, domain.ErrEmptyOrderBook)

	s := createTestShortingStrategy(gw)
	require.NoError(t, s.CloseNotTopBuyOrders(context.Background()))
	gw.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestShortingStrategy_ProcessBaseFunds(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetBalance", mock.Anything, "btc").Return(decimal.RequireFromString("0.123456789"), nil)
	gw.On("GetTradeHistory", mock.Anything, btcuah).Return([]domain.Trade{
		{ID: "3", Side: domain.SideSell, Price: decimal.NewFromInt(260000)},
		{ID: "2", Side: domain.SideBuy, Price: decimal.NewFromInt(250000)},
		{ID: "1", Side: domain.SideBuy, Price: decimal.NewFromInt(240000)},
	}, nil)
	gw.On("PlaceOrder", mock.Anything, btcuah, domain.SideSell,
		decimalMatcher(decimal.RequireFromString("0.123456")), decimalMatcher(decimal.NewFromInt(250500))).
		Return(echoOrder).Once()

	s := createTestShortingStrategy(gw)
	require.NoError(t, s.ProcessBaseFunds(context.Background()))
}

func TestShortingStrategy_ProcessBaseFunds_NoBuyHistoryStops(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetBalance", mock.Anything, "btc").Return(decimal.NewFromInt(1), nil)
	gw.On("GetTradeHistory", mock.Anything, btcuah).Return([]domain.Trade{
		{ID: "1", Side: domain.SideSell, Price: decimal.NewFromInt(260000)},
	}, nil)

	s := createTestShortingStrategy(gw)
	err := s.ProcessBaseFunds(context.Background())

	var stop *domain.StopError
	require.True(t, errors.As(err, &stop))
	gw.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestShortingStrategy_ProcessQuoteFunds_WaitsForActiveBuy(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetActiveOrders", mock.Anything, btcuah, domain.SideBuy).
		Return([]domain.PlacedOrder{{ID: "1"}}, nil)

	s := createTestShortingStrategy(gw)
	require.NoError(t, s.ProcessQuoteFunds(context.Background()))
	gw.AssertNotCalled(t, "GetBalance", mock.Anything, mock.Anything)
}

func TestShortingStrategy_ProcessQuoteFunds_HighPriceGuard(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetActiveOrders", mock.Anything, btcuah, domain.SideBuy).Return(nil, nil)
	gw.On("GetBalance", mock.Anything, "uah").Return(decimal.NewFromInt(1000), nil)
	gw.On("GetTicker", mock.Anything, btcuah).Return(domain.Ticker{
		High: decimal.NewFromInt(120),
		Low:  decimal.NewFromInt(100),
		Last: decimal.NewFromInt(115),
	}, nil)
	gw.On("GetOrderBookTop", mock.Anything, btcuah, domain.SideBuy).
		Return(domain.BookLevel{Price: decimal.RequireFromString("109.5")}, nil)

	s := createTestShortingStrategy(gw)
	require.NoError(t, s.ProcessQuoteFunds(context.Background()))
	gw.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestShortingStrategy_ProcessQuoteFunds(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetActiveOrders", mock.Anything, btcuah, domain.SideBuy).Return(nil, nil)
	gw.On("GetBalance", mock.Anything, "uah").Return(decimal.NewFromInt(1060), nil)
	gw.On("GetTicker", mock.Anything, btcuah).Return(domain.Ticker{
		High: decimal.NewFromInt(120),
		Low:  decimal.NewFromInt(100),
	}, nil)
	gw.On("GetOrderBookTop", mock.Anything, btcuah, domain.SideBuy).
		Return(domain.BookLevel{Price: decimal.NewFromInt(105)}, nil)
	gw.On("PlaceOrder", mock.Anything, btcuah, domain.SideBuy,
		decimalMatcher(decimal.NewFromInt(10)), decimalMatcher(decimal.NewFromInt(106))).
		Return(echoOrder).Once()

	s := createTestShortingStrategy(gw)
	require.NoError(t, s.ProcessQuoteFunds(context.Background()))
}

func TestShortingStrategy_TransientHistoryFailure(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetBalance", mock.Anything, "btc").Return(decimal.NewFromInt(1), nil)
	gw.On("GetTradeHistory", mock.Anything, btcuah).Return(nil, domain.ErrTransient)

	s := NewShortingStrategy(zap.NewNop(), gw, ShortingConfig{
		Pair:       btcuah,
		MinAmounts: domain.NewMinTradeAmounts(nil),
		RetryDelay: 3 * time.Second,
	})
	err := s.ProcessBaseFunds(context.Background())

	var retry *domain.RetryableError
	require.True(t, errors.As(err, &retry))
	assert.Equal(t, 3*time.Second, retry.Delay)
}
