// Command paperbook serves the order-book explorer with a paper-trading
// account. Market data is read from the supported exchanges (Binance,
// Bybit, Hyperliquid); trades never leave the process.
//
// Usage:
//
//	paperbook --config config.yaml
//	paperbook init   (interactive setup wizard)
//	paperbook        (uses CLI flags)
//
// Optional environment variables:
//
//	BINANCE_API_KEY, BINANCE_API_SECRET (public market data works without them)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/adshao/go-binance/v2"
	"github.com/hirokisan/bybit/v2"
	"github.com/joho/godotenv"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"go.uber.org/zap"

	"github.com/okulov/paperbook/config"
	"github.com/okulov/paperbook/internal/services/market"
	"github.com/okulov/paperbook/internal/services/paper"
	"github.com/okulov/paperbook/internal/setup"
	"github.com/okulov/paperbook/internal/storage/sessionstate"
	"github.com/okulov/paperbook/internal/storage/snapshots"
	"github.com/okulov/paperbook/internal/storage/tradewal"
	"github.com/okulov/paperbook/internal/web"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		os.Args = append(os.Args[:1], "--config", "config.gen.yaml")
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	binanceClient := binance.NewClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET"))
	bybitClient := bybit.NewClient()
	hlInfo := hyperliquid.NewInfo(ctx, hyperliquid.MainnetAPIURL, true, nil, nil)

	registry := market.NewRegistry(
		market.WithRetry(market.NewBinanceProvider(binanceClient)),
		market.WithRetry(market.NewBybitProvider(bybitClient)),
		market.WithRetry(market.NewHyperliquidProvider(hlInfo)),
	)

	var (
		state   *sessionstate.Store
		journal *tradewal.Store
	)
	if cfg.StateDir != "" {
		state, err = sessionstate.NewStore(cfg.StateDir)
		if err != nil {
			logger.Fatal("failed to open session state store", zap.Error(err))
		}
		journal, err = tradewal.NewStore(cfg.StateDir)
		if err != nil {
			logger.Fatal("failed to open trade journal", zap.Error(err))
		}
		defer journal.Close()
	}

	session, err := paper.NewSession(cfg.SeedBalance, logger, state, journal)
	if err != nil {
		logger.Fatal("failed to init paper session", zap.Error(err))
	}

	server := web.NewServer(web.Config{
		Addr:            cfg.ListenAddr,
		DefaultExchange: cfg.DefaultExchange,
		DefaultSymbol:   cfg.DefaultSymbol,
		BookDepth:       cfg.BookDepth,
	}, logger, session, registry, snapshots.NewStore())

	if len(cfg.TLSDomains) > 0 {
		err = server.StartWithAutoTLS(ctx, cfg.TLSDomains, cfg.CertCacheDir)
	} else {
		err = server.Start(ctx)
	}
	if err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
