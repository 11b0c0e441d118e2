package market

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/okulov/paperbook/internal/domain"
)

// HyperliquidProvider implements Provider for the Hyperliquid public Info
// API. Only ticker and kline data are available there; order book depth and
// symbol listings are reported as unsupported.
type HyperliquidProvider struct {
	info *hyperliquid.Info
}

// NewHyperliquidProvider creates a Hyperliquid market data provider.
func NewHyperliquidProvider(info *hyperliquid.Info) *HyperliquidProvider {
	return &HyperliquidProvider{info: info}
}

func (p *HyperliquidProvider) Name() string { return "hyperliquid" }

// OrderBook is not exposed by the Info API used here.
func (p *HyperliquidProvider) OrderBook(ctx context.Context, pair domain.Pair, depth int) (domain.OrderBook, error) {
	return domain.OrderBook{}, errors.Wrap(ErrUnsupported, "hyperliquid: order book")
}

// Ticker reports the current mid price for the base coin. Hyperliquid mids
// are keyed by base coin, e.g. "BTC".
func (p *HyperliquidProvider) Ticker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	if p.info == nil {
		return domain.Ticker{}, errors.New("hyperliquid info client is nil")
	}

	mids, err := p.info.AllMids(ctx)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(ErrUpstream, "hyperliquid: fetch mids: %v", err)
	}

	mid, ok := mids[pair.Base]
	if !ok || mid == "" {
		return domain.Ticker{}, errors.Wrapf(ErrUpstream, "hyperliquid: empty mid price for %s", pair.Base)
	}

	last, err := decimal.NewFromString(mid)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "hyperliquid: parse mid price %q", mid)
	}
	return domain.Ticker{Symbol: pair.String(), Last: last}, nil
}

// Klines fetches OHLCV candles from the candle snapshot endpoint.
func (p *HyperliquidProvider) Klines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Kline, error) {
	if p.info == nil {
		return nil, errors.New("hyperliquid info client is nil")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	span, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}

	endMs := time.Now().UnixMilli()
	// Fetch a slightly wider window to account for candle boundary rounding.
	startMs := endMs - (int64(limit)+2)*span.Milliseconds()

	coin := strings.ToUpper(pair.Base)
	candles, err := p.info.CandlesSnapshot(ctx, coin, interval, startMs, endMs)
	if err != nil {
		return nil, errors.Wrapf(ErrUpstream, "hyperliquid: fetch candles for %s %s: %v", coin, interval, err)
	}
	if len(candles) == 0 {
		return nil, errors.Wrapf(ErrUpstream, "hyperliquid: no candles for %s %s", coin, interval)
	}

	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	out := make([]domain.Kline, 0, len(candles))
	for i, c := range candles {
		open, err := decimal.NewFromString(c.Open)
		if err != nil {
			return nil, errors.Wrapf(err, "hyperliquid: parse open at %d", i)
		}
		high, err := decimal.NewFromString(c.High)
		if err != nil {
			return nil, errors.Wrapf(err, "hyperliquid: parse high at %d", i)
		}
		low, err := decimal.NewFromString(c.Low)
		if err != nil {
			return nil, errors.Wrapf(err, "hyperliquid: parse low at %d", i)
		}
		closePrice, err := decimal.NewFromString(c.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "hyperliquid: parse close at %d", i)
		}
		volume, err := decimal.NewFromString(c.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "hyperliquid: parse volume at %d", i)
		}

		out = append(out, domain.Kline{
			OpenTime:  time.UnixMilli(c.TimeOpen),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: time.UnixMilli(c.TimeClose),
		})
	}
	return out, nil
}

// Symbols is not exposed by the Info API used here.
func (p *HyperliquidProvider) Symbols(ctx context.Context) ([]string, error) {
	return nil, errors.Wrap(ErrUnsupported, "hyperliquid: symbol listing")
}
