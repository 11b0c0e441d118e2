package market

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/okulov/paperbook/internal/domain"
)

// BinanceProvider implements Provider for Binance public endpoints.
type BinanceProvider struct {
	client *binance.Client
}

// NewBinanceProvider creates a Binance market data provider.
func NewBinanceProvider(client *binance.Client) *BinanceProvider {
	return &BinanceProvider{client: client}
}

func (p *BinanceProvider) Name() string { return "binance" }

// OrderBook fetches the depth snapshot for the pair.
func (p *BinanceProvider) OrderBook(ctx context.Context, pair domain.Pair, depth int) (domain.OrderBook, error) {
	res, err := p.client.NewDepthService().
		Symbol(pair.Symbol()).
		Limit(depth).
		Do(ctx)
	if err != nil {
		return domain.OrderBook{}, errors.Wrapf(ErrUpstream, "binance: fetch order book for %s: %v", pair.String(), err)
	}

	book := domain.OrderBook{
		Bids: make([]domain.PriceLevel, 0, len(res.Bids)),
		Asks: make([]domain.PriceLevel, 0, len(res.Asks)),
	}
	for _, b := range res.Bids {
		level, err := parseLevel(b.Price, b.Quantity)
		if err != nil {
			return domain.OrderBook{}, errors.Wrap(err, "binance: parse bid")
		}
		book.Bids = append(book.Bids, level)
	}
	for _, a := range res.Asks {
		level, err := parseLevel(a.Price, a.Quantity)
		if err != nil {
			return domain.OrderBook{}, errors.Wrap(err, "binance: parse ask")
		}
		book.Asks = append(book.Asks, level)
	}
	return book, nil
}

// Ticker fetches the 24h price statistics for the pair.
func (p *BinanceProvider) Ticker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	stats, err := p.client.NewListPriceChangeStatsService().
		Symbol(pair.Symbol()).
		Do(ctx)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(ErrUpstream, "binance: fetch ticker for %s: %v", pair.String(), err)
	}
	if len(stats) == 0 {
		return domain.Ticker{}, errors.Wrapf(ErrUpstream, "binance: empty ticker for %s", pair.String())
	}

	s := stats[0]
	ticker := domain.Ticker{Symbol: pair.String()}
	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&ticker.Last, s.LastPrice},
		{&ticker.High, s.HighPrice},
		{&ticker.Low, s.LowPrice},
		{&ticker.Bid, s.BidPrice},
		{&ticker.Ask, s.AskPrice},
	} {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return domain.Ticker{}, errors.Wrapf(err, "binance: parse ticker field %q", f.raw)
		}
		*f.dst = v
	}
	return ticker, nil
}

// Klines fetches OHLCV candles for the pair.
func (p *BinanceProvider) Klines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Kline, error) {
	klines, err := p.client.NewKlinesService().
		Symbol(pair.Symbol()).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrUpstream, "binance: fetch klines for %s: %v", pair.String(), err)
	}

	result := make([]domain.Kline, 0, len(klines))
	for i, k := range klines {
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, errors.Wrapf(err, "binance: parse open price at index %d", i)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, errors.Wrapf(err, "binance: parse high price at index %d", i)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, errors.Wrapf(err, "binance: parse low price at index %d", i)
		}
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "binance: parse close price at index %d", i)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "binance: parse volume at index %d", i)
		}

		result = append(result, domain.Kline{
			OpenTime:  time.Unix(0, k.OpenTime*int64(time.Millisecond)),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: time.Unix(0, k.CloseTime*int64(time.Millisecond)),
		})
	}
	return result, nil
}

// Symbols lists the actively trading slash-separated symbols.
func (p *BinanceProvider) Symbols(ctx context.Context) ([]string, error) {
	info, err := p.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(ErrUpstream, "binance: fetch exchange info: %v", err)
	}

	symbols := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		symbols = append(symbols, s.BaseAsset+"/"+s.QuoteAsset)
	}
	return symbols, nil
}

func parseLevel(price, quantity string) (domain.PriceLevel, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.PriceLevel{}, errors.Wrapf(err, "parse price %q", price)
	}
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return domain.PriceLevel{}, errors.Wrapf(err, "parse quantity %q", quantity)
	}
	return domain.PriceLevel{Price: p, Quantity: q}, nil
}
