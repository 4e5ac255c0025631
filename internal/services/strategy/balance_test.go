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
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var btcuah = domain.Pair{Base: "btc", Quote: "uah"}

func decimalMatcher(expected decimal.Decimal) interface{} {
	return mock.MatchedBy(func(actual decimal.Decimal) bool {
		return expected.Equal(actual)
	})
}

func TestBalanceGate_IsTradeable(t *testing.T) {
	tests := []struct {
		name      string
		currency  string
		balance   decimal.Decimal
		expected  bool
		expectLog bool
	}{
		{name: "above minimum", currency: "uah", balance: decimal.NewFromInt(51), expected: true},
		{name: "exactly minimum", currency: "btc", balance: decimal.RequireFromString("0.01"), expected: true},
		{name: "below minimum", currency: "btc", balance: decimal.RequireFromString("0.009"), expected: false, expectLog: true},
		{name: "unknown currency uses default", currency: "xrp", balance: decimal.NewFromInt(999), expected: false, expectLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			gw := gatewayMock.NewGateway(t)
			gw.On("GetBalance", mock.Anything, tt.currency).Return(tt.balance, nil)

			gate := NewBalanceGate(zap.New(core), gw, domain.NewMinTradeAmounts(nil), 0)

			ok, err := gate.IsTradeable(context.Background(), tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.Equal(t, tt.expectLog, logs.FilterMessage("Insufficient funds to trade").Len() == 1)
		})
	}
}

func TestBalanceGate_IsTradeable_Idempotent(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetBalance", mock.Anything, "uah").Return(decimal.NewFromInt(49), nil).Twice()

	gate := NewBalanceGate(zap.NewNop(), gw, domain.NewMinTradeAmounts(nil), 0)

	first, err := gate.IsTradeable(context.Background(), "uah")
	require.NoError(t, err)
	second, err := gate.IsTradeable(context.Background(), "uah")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBalanceGate_TransientFailureIsRetryable(t *testing.T) {
	gw := gatewayMock.NewGateway(t)
	gw.On("GetBalance", mock.Anything, "btc").
		Return(decimal.Zero, errors.Wrap(domain.ErrTransient, "dial tcp: i/o timeout"))

	gate := NewBalanceGate(zap.NewNop(), gw, domain.NewMinTradeAmounts(nil), 0)

	ok, err := gate.IsTradeable(context.Background(), "btc")
	require.Error(t, err)
	assert.False(t, ok)

	var retry *domain.RetryableError
	require.True(t, errors.As(err, &retry))
	assert.Equal(t, 10*time.Second, retry.Delay)
	assert.True(t, errors.Is(err, domain.ErrTransient))
}

func TestBalanceGate_OtherFailuresAreFatal(t *testing.T) {
	for _, cause := range []error{
		domain.ErrMalformed,
		domain.ErrAuthentication,
		errors.New("unexpected"),
	} {
		t.Run(cause.Error(), func(t *testing.T) {
			gw := gatewayMock.NewGateway(t)
			gw.On("GetBalance", mock.Anything, "btc").Return(decimal.Zero, cause)

			gate := NewBalanceGate(zap.NewNop(), gw, domain.NewMinTradeAmounts(nil), 5*time.Second)

			_, err := gate.IsTradeable(context.Background(), "btc")
			var fatal *domain.FatalError
			require.True(t, errors.As(err, &fatal))
			assert.True(t, errors.Is(err, cause), "cause must be preserved")
		})
	}
}
