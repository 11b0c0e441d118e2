// Package market provides read-only market data adapters for the supported
// exchanges behind a single Provider interface.
package market

import (
	"context"

	"github.com/pkg/errors"

	"github.com/okulov/paperbook/internal/domain"
)

var (
	// ErrUpstream marks a failure of the upstream exchange API. It is
	// surfaced to the caller, not retried here.
	ErrUpstream = errors.New("upstream market data error")
	// ErrUnsupported marks an operation the exchange does not expose.
	ErrUnsupported = errors.New("operation not supported by exchange")
	// ErrUnknownExchange rejects requests naming an unregistered exchange.
	ErrUnknownExchange = errors.New("unknown exchange")
)

// Provider fetches live market data from one exchange.
type Provider interface {
	// Name returns the exchange identifier, e.g. "binance".
	Name() string
	// OrderBook fetches the current bid/ask levels up to the given depth.
	OrderBook(ctx context.Context, pair domain.Pair, depth int) (domain.OrderBook, error)
	// Ticker fetches the latest market summary for the pair.
	Ticker(ctx context.Context, pair domain.Pair) (domain.Ticker, error)
	// Klines fetches up to limit OHLCV candles for the interval, e.g. "1h".
	Klines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Kline, error)
	// Symbols lists the tradeable slash-separated symbols.
	Symbols(ctx context.Context) ([]string, error)
}
