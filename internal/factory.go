package internal

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/madmis/kuna-bot/config"
	"github.com/madmis/kuna-bot/internal/services/gateway"
	"github.com/madmis/kuna-bot/internal/services/strategy"
	"github.com/madmis/kuna-bot/internal/storage/paperstate"
)

// NewGateway creates the exchange gateway of the configured platform.
// This is the single point of truth for dispatching to platform-specific implementations.
func NewGateway(l *zap.Logger, conf config.Config) (strategy.Gateway, error) {
	switch conf.Platform {
	case config.PlatformBinance:
		return gateway.NewBinanceFromKeys(conf.PublicKey, conf.SecretKey), nil
	case config.PlatformBybit:
		return gateway.NewBybitFromKeys(conf.PublicKey, conf.SecretKey), nil
	case config.PlatformPaper:
		return createPaperGateway(l, conf)
	default:
		return nil, fmt.Errorf("unsupported platform: %s", conf.Platform)
	}
}

func createPaperGateway(l *zap.Logger, conf config.Config) (strategy.Gateway, error) {
	market, err := newMarketSource(conf.Paper.Market)
	if err != nil {
		return nil, err
	}

	store, err := paperstate.NewStore(conf.Paper.StateDir, conf.Pair.ID())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open paper state store")
	}

	paper, err := gateway.NewPaper(l, conf.Pair, market, conf.Paper.Balances, store)
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "failed to create paper exchange")
	}

	return paper, nil
}

// newMarketSource returns an unauthenticated gateway, public market data only.
func newMarketSource(platform string) (gateway.MarketSource, error) {
	switch platform {
	case "", config.PlatformBinance:
		return gateway.NewBinanceFromKeys("", ""), nil
	case config.PlatformBybit:
		return gateway.NewBybitFromKeys("", ""), nil
	default:
		return nil, fmt.Errorf("unsupported paper market: %s", platform)
	}
}

// createTradingStrategy creates a trading strategy instance based on configuration.
func createTradingStrategy(l *zap.Logger, conf config.Config, gw strategy.Gateway) (TradingStrategy, error) {
	switch conf.Strategy {
	case config.StrategySimple:
		return strategy.NewSimpleStrategy(l, gw, strategy.SimpleConfig{
			Pair:       conf.Pair,
			Base:       conf.BaseCurrency,
			Quote:      conf.QuoteCurrency,
			MinAmounts: conf.MinAmounts,
			Policy:     conf.BelowBoundaryPolicy,
			RetryDelay: conf.RetryDelay,
		}), nil
	case config.StrategyShorting:
		return strategy.NewShortingStrategy(l, gw, strategy.ShortingConfig{
			Pair:         conf.Pair,
			Margin:       conf.Margin,
			IncreaseUnit: conf.IncreaseUnit,
			MinAmounts:   conf.MinAmounts,
			RetryDelay:   conf.RetryDelay,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported strategy type: %s", conf.Strategy)
	}
}
