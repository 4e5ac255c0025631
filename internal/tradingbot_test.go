package internal

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/madmis/kuna-bot/config"
	"github.com/madmis/kuna-bot/internal/domain"
	gatewayMock "github.com/madmis/kuna-bot/mocks/gateway"
)

// scriptedStrategy fails ProcessBaseFunds with the scripted errors, one per cycle,
// and stops the bot once the script is exhausted.
type scriptedStrategy struct {
	script []error
	cycles int
}

func (s *scriptedStrategy) Reconcile(context.Context) error { return nil }

func (s *scriptedStrategy) ProcessBaseFunds(context.Context) error {
	s.cycles++
	if s.cycles > len(s.script) {
		return domain.NewStopError("script finished")
	}
	return s.script[s.cycles-1]
}

func (s *scriptedStrategy) ProcessQuoteFunds(context.Context) error { return nil }

type sleepRecorder struct {
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

type countingReporter struct {
	calls int
}

func (r *countingReporter) Report() { r.calls++ }

func newTestBot(l *zap.Logger, s TradingStrategy, rec *sleepRecorder) *TradingBot {
	return &TradingBot{
		Config: config.Config{
			Pair:             domain.Pair{Base: "btc", Quote: "uah"},
			Strategy:         config.StrategySimple,
			IterationTimeout: 30 * time.Second,
		},
		strategy: s,
		sleep:    rec.sleep,
		l:        l,
	}
}

func TestTradingBot_Run_RetryUsesOutcomeDelayOnly(t *testing.T) {
	rec := &sleepRecorder{}
	s := &scriptedStrategy{script: []error{
		domain.NewRetryableError(errors.New("rate limited"), 10*time.Second),
	}}
	bot := newTestBot(zap.NewNop(), s, rec)

	err := bot.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{10 * time.Second}, rec.delays)
	assert.Equal(t, 2, s.cycles)
}

func TestTradingBot_Run_StopTerminatesWithoutError(t *testing.T) {
	rec := &sleepRecorder{}
	s := &scriptedStrategy{}
	bot := newTestBot(zap.NewNop(), s, rec)

	require.NoError(t, bot.Run(context.Background()))
	assert.Empty(t, rec.delays)
	assert.Equal(t, 1, s.cycles)
}

func TestTradingBot_Run_AuthenticationIsFatal(t *testing.T) {
	rec := &sleepRecorder{}
	authErr := errors.Wrap(domain.ErrAuthentication, "invalid api key")
	s := &scriptedStrategy{script: []error{
		domain.NewRetryableError(authErr, 10*time.Second),
	}}
	bot := newTestBot(zap.NewNop(), s, rec)

	err := bot.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.Empty(t, rec.delays)
}

func TestTradingBot_Run_FatalError(t *testing.T) {
	rec := &sleepRecorder{}
	s := &scriptedStrategy{script: []error{
		domain.NewFatalError(errors.New("balance lookup failed")),
	}}
	bot := newTestBot(zap.NewNop(), s, rec)

	err := bot.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "balance lookup failed")
	assert.Equal(t, 1, s.cycles)
}

func TestTradingBot_Run_UnclassifiedErrorContinues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := &sleepRecorder{}
	s := &scriptedStrategy{script: []error{
		errors.New("boom"),
		errors.Wrap(domain.ErrMalformed, "field price"),
	}}
	bot := newTestBot(zap.New(core), s, rec)

	require.NoError(t, bot.Run(context.Background()))
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, rec.delays)
	assert.Equal(t, 1, logs.FilterMessage("Unhandled error").Len())
	assert.Equal(t, 1, logs.FilterMessage("Type error").Len())
}

func TestTradingBot_Run_LogsInterruptedIteration(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rec := &sleepRecorder{}
	s := &scriptedStrategy{script: []error{
		domain.NewRetryableError(errors.New("empty book"), 5*time.Second),
	}}
	bot := newTestBot(zap.New(core), s, rec)

	require.NoError(t, bot.Run(context.Background()))

	entries := logs.FilterMessage("Iteration interrupted").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, 1, logs.FilterMessage("Bot stopped").Len())
}

func TestTradingBot_Run_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &scriptedStrategy{script: []error{nil, nil, nil}}
	bot := newTestBot(zap.NewNop(), s, &sleepRecorder{})
	bot.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := bot.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.cycles)
}

func TestTradingBot_Run_ReportsMemoryEveryCycle(t *testing.T) {
	reporter := &countingReporter{}
	s := &scriptedStrategy{script: []error{nil, errors.New("boom")}}
	bot := newTestBot(zap.NewNop(), s, &sleepRecorder{})
	bot.memory = reporter

	require.NoError(t, bot.Run(context.Background()))
	assert.Equal(t, 3, reporter.calls)
}

func TestClassifyCycleError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      OutcomeKind
		delay     time.Duration
		malformed bool
	}{
		{name: "clean", err: nil, kind: OutcomeContinue},
		{name: "retryable", err: domain.NewRetryableError(errors.New("x"), 7*time.Second), kind: OutcomeRetry, delay: 7 * time.Second},
		{name: "wrapped retryable", err: errors.Wrap(domain.NewRetryableError(errors.New("x"), time.Second), "cycle"), kind: OutcomeRetry, delay: time.Second},
		{name: "stop", err: domain.NewStopError("no buy trades"), kind: OutcomeStop},
		{name: "fatal", err: domain.NewFatalError(errors.New("x")), kind: OutcomeFatal},
		{name: "authentication", err: errors.Wrap(domain.ErrAuthentication, "x"), kind: OutcomeFatal},
		{name: "canceled", err: errors.Wrap(context.Canceled, "x"), kind: OutcomeStop},
		{name: "malformed", err: errors.Wrap(domain.ErrMalformed, "x"), kind: OutcomeContinue, malformed: true},
		{name: "unknown", err: errors.New("x"), kind: OutcomeContinue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := ClassifyCycleError(tt.err)
			assert.Equal(t, tt.kind, outcome.Kind, "got %s", outcome.Kind)
			assert.Equal(t, tt.delay, outcome.Delay)
			assert.Equal(t, tt.malformed, outcome.Malformed)
			assert.Equal(t, tt.kind == OutcomeStop || tt.kind == OutcomeFatal, outcome.Terminal())
		})
	}
}

func TestNewTradingBot(t *testing.T) {
	conf := config.Config{
		Platform:         config.PlatformPaper,
		Pair:             domain.Pair{Base: "btc", Quote: "uah"},
		IterationTimeout: 30 * time.Second,
		MinAmounts:       domain.NewMinTradeAmounts(nil),
		Margin:           decimal.NewFromInt(100),
		IncreaseUnit:     decimal.RequireFromString("0.01"),
	}

	tests := []struct {
		name             string
		strategy         string
		expectedErrorMsg string
	}{
		{name: "simple", strategy: config.StrategySimple},
		{name: "shorting", strategy: config.StrategyShorting},
		{name: "unsupported", strategy: "martingale", expectedErrorMsg: "unsupported strategy type: martingale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := conf
			current.Strategy = tt.strategy

			bot, err := NewTradingBot(zap.NewNop(), current, gatewayMock.NewGateway(t))
			if tt.expectedErrorMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErrorMsg)
				assert.Nil(t, bot)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, current, bot.Config)
			assert.Nil(t, bot.memory)
			assert.NoError(t, bot.Close())
		})
	}
}

func TestNewGateway(t *testing.T) {
	conf := config.Config{
		Platform: config.PlatformPaper,
		Pair:     domain.Pair{Base: "btc", Quote: "uah"},
		Paper: config.PaperConfig{
			StateDir: t.TempDir(),
			Market:   config.PlatformBinance,
			Balances: map[string]decimal.Decimal{"uah": decimal.NewFromInt(1000)},
		},
	}

	gw, err := NewGateway(zap.NewNop(), conf)
	require.NoError(t, err)
	require.NotNil(t, gw)

	bot, err := NewTradingBot(zap.NewNop(), config.Config{
		Platform: config.PlatformPaper,
		Strategy: config.StrategySimple,
		Pair:     conf.Pair,
	}, gw)
	require.NoError(t, err)
	require.NotNil(t, bot.closer, "paper gateway owns a state store")
	assert.NoError(t, bot.Close())

	_, err = NewGateway(zap.NewNop(), config.Config{Platform: "kraken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported platform: kraken")

	conf.Paper.Market = "kraken"
	_, err = NewGateway(zap.NewNop(), conf)
	require.Error(t, err)
}
