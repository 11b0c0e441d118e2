package market

import (
	"context"
	"strconv"
	"time"

	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/okulov/paperbook/internal/domain"
)

// bybitIntervals maps common interval notation onto Bybit V5 interval codes.
var bybitIntervals = map[string]bybit.Interval{
	"1m":  bybit.Interval("1"),
	"3m":  bybit.Interval("3"),
	"5m":  bybit.Interval("5"),
	"15m": bybit.Interval("15"),
	"30m": bybit.Interval("30"),
	"1h":  bybit.Interval("60"),
	"2h":  bybit.Interval("120"),
	"4h":  bybit.Interval("240"),
	"1d":  bybit.Interval("D"),
	"1w":  bybit.Interval("W"),
}

// BybitProvider implements Provider for the Bybit V5 spot market API.
type BybitProvider struct {
	client *bybit.Client
}

// NewBybitProvider creates a Bybit market data provider.
func NewBybitProvider(client *bybit.Client) *BybitProvider {
	return &BybitProvider{client: client}
}

func (p *BybitProvider) Name() string { return "bybit" }

// OrderBook fetches the spot order book for the pair.
func (p *BybitProvider) OrderBook(ctx context.Context, pair domain.Pair, depth int) (domain.OrderBook, error) {
	res, err := p.client.V5().Market().GetOrderbook(bybit.V5GetOrderbookParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(pair.Symbol()),
		Limit:    &depth,
	})
	if err != nil {
		return domain.OrderBook{}, errors.Wrapf(ErrUpstream, "bybit: fetch order book for %s: %v", pair.String(), err)
	}

	book := domain.OrderBook{
		Bids: make([]domain.PriceLevel, 0, len(res.Result.Bids)),
		Asks: make([]domain.PriceLevel, 0, len(res.Result.Asks)),
	}
	for _, b := range res.Result.Bids {
		level, err := parseLevel(b.Price, b.Quantity)
		if err != nil {
			return domain.OrderBook{}, errors.Wrap(err, "bybit: parse bid")
		}
		book.Bids = append(book.Bids, level)
	}
	for _, a := range res.Result.Asks {
		level, err := parseLevel(a.Price, a.Quantity)
		if err != nil {
			return domain.OrderBook{}, errors.Wrap(err, "bybit: parse ask")
		}
		book.Asks = append(book.Asks, level)
	}
	return book, nil
}

// Ticker fetches the spot ticker for the pair.
func (p *BybitProvider) Ticker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	symbol := bybit.SymbolV5(pair.Symbol())
	res, err := p.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   &symbol,
	})
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(ErrUpstream, "bybit: fetch ticker for %s: %v", pair.String(), err)
	}
	if len(res.Result.Spot.List) == 0 {
		return domain.Ticker{}, errors.Wrapf(ErrUpstream, "bybit: empty ticker for %s", pair.String())
	}

	item := res.Result.Spot.List[0]
	ticker := domain.Ticker{Symbol: pair.String()}
	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&ticker.Last, item.LastPrice},
		{&ticker.High, item.HighPrice24H},
		{&ticker.Low, item.LowPrice24H},
		{&ticker.Bid, item.Bid1Price},
		{&ticker.Ask, item.Ask1Price},
	} {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return domain.Ticker{}, errors.Wrapf(err, "bybit: parse ticker field %q", f.raw)
		}
		*f.dst = v
	}
	return ticker, nil
}

// Klines fetches OHLCV candles for the pair.
func (p *BybitProvider) Klines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Kline, error) {
	code, ok := bybitIntervals[interval]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupported, "bybit: interval %q", interval)
	}

	res, err := p.client.V5().Market().GetKline(bybit.V5GetKlineParam{
		Category: bybit.CategoryV5Spot,
		Symbol:   bybit.SymbolV5(pair.Symbol()),
		Interval: code,
		Limit:    &limit,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrUpstream, "bybit: fetch klines for %s: %v", pair.String(), err)
	}

	span, err := intervalDuration(interval)
	if err != nil {
		return nil, err
	}

	// Bybit returns newest first; reverse to oldest first.
	list := res.Result.List
	result := make([]domain.Kline, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		k := list[i]
		startMs, err := strconv.ParseInt(k.StartTime, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bybit: parse kline start time %q", k.StartTime)
		}
		open, err := decimal.NewFromString(k.Open)
		if err != nil {
			return nil, errors.Wrapf(err, "bybit: parse open price %s", k.Open)
		}
		high, err := decimal.NewFromString(k.High)
		if err != nil {
			return nil, errors.Wrapf(err, "bybit: parse high price %s", k.High)
		}
		low, err := decimal.NewFromString(k.Low)
		if err != nil {
			return nil, errors.Wrapf(err, "bybit: parse low price %s", k.Low)
		}
		closePrice, err := decimal.NewFromString(k.Close)
		if err != nil {
			return nil, errors.Wrapf(err, "bybit: parse close price %s", k.Close)
		}
		volume, err := decimal.NewFromString(k.Volume)
		if err != nil {
			return nil, errors.Wrapf(err, "bybit: parse volume %s", k.Volume)
		}

		openTime := time.UnixMilli(startMs)
		result = append(result, domain.Kline{
			OpenTime:  openTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: openTime.Add(span),
		})
	}
	return result, nil
}

// Symbols lists the spot instruments as slash-separated symbols.
func (p *BybitProvider) Symbols(ctx context.Context) ([]string, error) {
	res, err := p.client.V5().Market().GetInstrumentsInfo(bybit.V5GetInstrumentsInfoParam{
		Category: bybit.CategoryV5Spot,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrUpstream, "bybit: fetch instruments info: %v", err)
	}

	list := res.Result.Spot.List
	symbols := make([]string, 0, len(list))
	for _, s := range list {
		symbols = append(symbols, string(s.BaseCoin)+"/"+string(s.QuoteCoin))
	}
	return symbols, nil
}
