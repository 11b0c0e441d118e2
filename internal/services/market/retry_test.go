package market

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/okulov/paperbook/internal/domain"
)

// flakyProvider fails a fixed number of times before succeeding.
type flakyProvider struct {
	failures int
	calls    int
	err      error
}

func (p *flakyProvider) Name() string { return "flaky" }

func (p *flakyProvider) OrderBook(_ context.Context, _ domain.Pair, _ int) (domain.OrderBook, error) {
	p.calls++
	if p.calls <= p.failures {
		return domain.OrderBook{}, p.err
	}
	return domain.OrderBook{Bids: []domain.PriceLevel{{Price: decimal.NewFromInt(1), Quantity: decimal.NewFromInt(1)}}}, nil
}

func (p *flakyProvider) Ticker(_ context.Context, _ domain.Pair) (domain.Ticker, error) {
	p.calls++
	if p.calls <= p.failures {
		return domain.Ticker{}, p.err
	}
	return domain.Ticker{Last: decimal.NewFromInt(100)}, nil
}

func (p *flakyProvider) Klines(_ context.Context, _ domain.Pair, _ string, _ int) ([]domain.Kline, error) {
	return nil, p.err
}

func (p *flakyProvider) Symbols(_ context.Context) ([]string, error) {
	p.calls++
	return nil, p.err
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	inner := &flakyProvider{failures: 1, err: errors.Wrap(ErrUpstream, "flaky: timeout")}
	p := WithRetry(inner)

	book, err := p.OrderBook(context.Background(), domain.Pair{Base: "BTC", Quote: "USDT"}, 5)
	require.NoError(t, err)
	require.Len(t, book.Bids, 1)
	require.Equal(t, 2, inner.calls)
}

func TestWithRetryGivesUpEventually(t *testing.T) {
	inner := &flakyProvider{failures: 100, err: errors.Wrap(ErrUpstream, "flaky: down")}
	p := WithRetry(inner)

	_, err := p.Ticker(context.Background(), domain.Pair{Base: "BTC", Quote: "USDT"})
	require.ErrorIs(t, err, ErrUpstream)
	require.Equal(t, 3, inner.calls, "1 initial attempt + 2 retries")
}

func TestWithRetryDoesNotRetryUnsupported(t *testing.T) {
	inner := &flakyProvider{err: errors.Wrap(ErrUnsupported, "flaky: no symbol listing")}
	p := WithRetry(inner)

	_, err := p.Symbols(context.Background())
	require.ErrorIs(t, err, ErrUnsupported)
	require.Equal(t, 1, inner.calls)
}

func TestRegistryLookup(t *testing.T) {
	inner := &flakyProvider{}
	r := NewRegistry(inner, inner) // duplicate names are ignored

	require.Equal(t, []string{"flaky"}, r.Exchanges())

	got, err := r.Get("flaky")
	require.NoError(t, err)
	require.Equal(t, "flaky", got.Name())

	_, err = r.Get("nope")
	require.ErrorIs(t, err, ErrUnknownExchange)
}
