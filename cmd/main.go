// Command kuna-bot runs market making bots, one per configured pair.
// It supports Binance and Bybit spot markets and a paper trading exchange,
// and is configured with a YAML file holding one bot or a list of them.
//
// Usage:
//
//	kuna-bot -config config.yaml [pair]
//	kuna-bot -setup (runs the configuration wizard)
//
// Credentials not set in the config are read from the environment:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/madmis/kuna-bot/config"
	"github.com/madmis/kuna-bot/internal"
	"github.com/madmis/kuna-bot/internal/logger"
	"github.com/madmis/kuna-bot/internal/setup"
)

func main() {
	flags, configs, err := config.Get(os.Args[1:], os.Stderr)
	if err != nil {
		log.Fatal(err)
	}

	if flags.Setup {
		path, err := setup.RunTUI()
		if err != nil {
			log.Fatal(err)
		}
		if configs, err = config.Load(path, flags.PairID); err != nil {
			log.Fatal(err)
		}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bots := make(map[string]internal.Runner, len(configs))
	loggers := make([]*zap.Logger, 0, len(configs))
	for i, conf := range configs {
		l, err := logger.New(logger.Options{Level: conf.LogLevel, File: conf.LogFile})
		if err != nil {
			log.Fatal(err)
		}
		l = logger.ForPair(l, conf.Pair.ID())
		loggers = append(loggers, l)

		gateway, err := internal.NewGateway(l, conf)
		if err != nil {
			l.Fatal("failed to create exchange gateway", zap.Error(err))
		}

		bot, err := internal.NewTradingBot(l, conf, gateway)
		if err != nil {
			l.Fatal("failed to create trading bot", zap.Error(err))
		}

		// a pair may be traded by several bots
		bots[fmt.Sprintf("%s#%d", conf.Pair.ID(), i+1)] = bot
		l.Info("started", zap.String("platform", conf.Platform))
	}

	err = internal.RunBots(sigCtx, bots)
	for _, l := range loggers {
		_ = l.Sync()
	}
	if err != nil {
		log.Fatal(err)
	}
}
