package market

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/okulov/paperbook/internal/domain"
	"github.com/okulov/paperbook/pkg/retrier"
)

// retryProvider decorates a Provider with bounded retries on transient
// upstream failures. Unsupported operations fail straight through.
type retryProvider struct {
	inner Provider
	r     *retrier.Retrier
}

// WithRetry wraps the provider so upstream failures are retried with
// exponential backoff before being surfaced.
func WithRetry(p Provider) Provider {
	return &retryProvider{
		inner: p,
		r: retrier.New(
			retrier.WithInitialInterval(200*time.Millisecond),
			retrier.WithMaxInterval(2*time.Second),
			retrier.WithMaxRetries(2),
		),
	}
}

func (p *retryProvider) Name() string { return p.inner.Name() }

func (p *retryProvider) OrderBook(ctx context.Context, pair domain.Pair, depth int) (domain.OrderBook, error) {
	return retryData(ctx, p.r, func(ctx context.Context) (domain.OrderBook, error) {
		return p.inner.OrderBook(ctx, pair, depth)
	})
}

func (p *retryProvider) Ticker(ctx context.Context, pair domain.Pair) (domain.Ticker, error) {
	return retryData(ctx, p.r, func(ctx context.Context) (domain.Ticker, error) {
		return p.inner.Ticker(ctx, pair)
	})
}

func (p *retryProvider) Klines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]domain.Kline, error) {
	return retryData(ctx, p.r, func(ctx context.Context) ([]domain.Kline, error) {
		return p.inner.Klines(ctx, pair, interval, limit)
	})
}

func (p *retryProvider) Symbols(ctx context.Context) ([]string, error) {
	return retryData(ctx, p.r, func(ctx context.Context) ([]string, error) {
		return p.inner.Symbols(ctx)
	})
}

func retryData[T any](ctx context.Context, r *retrier.Retrier, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	var final error
	err := r.Do(ctx, func(ctx context.Context) error {
		out, final = fn(ctx)
		if errors.Is(final, ErrUnsupported) {
			// permanent, do not burn retries on it
			return nil
		}
		return final
	})
	if err != nil {
		return out, err
	}
	return out, final
}
