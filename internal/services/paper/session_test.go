package paper

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/okulov/paperbook/internal/domain"
	"github.com/okulov/paperbook/internal/storage/sessionstate"
	"github.com/okulov/paperbook/internal/storage/tradewal"
)

func newTestSession(t *testing.T) *Session {
	s, err := NewSession(decimal.NewFromInt(100000), zap.NewNop(), nil, nil)
	require.NoError(t, err)
	return s
}

func marketOrder(side domain.Side, symbol string, amount decimal.Decimal) domain.OrderRequest {
	return domain.OrderRequest{
		Side:      side,
		OrderType: domain.OrderTypeMarket,
		Symbol:    symbol,
		Amount:    amount,
	}
}

func TestSessionBuyThenPartialSell(t *testing.T) {
	s := newTestSession(t)

	view, err := s.SubmitOrder(marketOrder(domain.SideBuy, "BTC/USDT", decimal.NewFromInt(1)), decimal.NewFromInt(50000))
	require.NoError(t, err)
	require.True(t, view.Balance.Equal(decimal.NewFromInt(50000)))
	require.Len(t, view.Holdings, 1)
	require.Equal(t, "BTC", view.Holdings[0].Asset)
	require.True(t, view.Holdings[0].AvgBuyPrice.Equal(decimal.NewFromInt(50000)))

	view, err = s.SubmitOrder(marketOrder(domain.SideSell, "BTC/USDT", decimal.NewFromFloat(0.5)), decimal.NewFromInt(60000))
	require.NoError(t, err)
	require.True(t, view.Balance.Equal(decimal.NewFromInt(80000)), "balance should be 80000, got %s", view.Balance)
	require.True(t, view.Holdings[0].Quantity.Equal(decimal.NewFromFloat(0.5)))
	require.True(t, view.Holdings[0].AvgBuyPrice.Equal(decimal.NewFromInt(50000)))

	trades := s.Trades()
	require.Len(t, trades, 2)
	require.Nil(t, trades[0].RealizedPnL, "buys carry no realized pnl")
	require.NotNil(t, trades[1].RealizedPnL)
	require.True(t, trades[1].RealizedPnL.Equal(decimal.NewFromInt(5000)))
}

func TestSessionRoundTripIsPnLNeutral(t *testing.T) {
	s := newTestSession(t)
	price := decimal.NewFromInt(50000)

	_, err := s.SubmitOrder(marketOrder(domain.SideBuy, "BTC/USDT", decimal.NewFromInt(1)), price)
	require.NoError(t, err)
	view, err := s.SubmitOrder(marketOrder(domain.SideSell, "BTC/USDT", decimal.NewFromInt(1)), price)
	require.NoError(t, err)

	require.True(t, view.Balance.Equal(decimal.NewFromInt(100000)))
	require.Empty(t, view.Holdings)

	trades := s.Trades()
	require.Len(t, trades, 2)
	require.True(t, trades[1].RealizedPnL.IsZero())
}

func TestSessionLimitOrderFillsAtLimitPrice(t *testing.T) {
	s := newTestSession(t)

	view, err := s.SubmitOrder(domain.OrderRequest{
		Side:      domain.SideBuy,
		OrderType: domain.OrderTypeLimit,
		Symbol:    "ETH/USDT",
		Price:     decimal.NewFromInt(2000),
		Amount:    decimal.NewFromInt(2),
	}, decimal.NewFromInt(9999)) // ref price must be ignored for limit orders
	require.NoError(t, err)

	require.True(t, view.Balance.Equal(decimal.NewFromInt(96000)))
	require.True(t, view.Holdings[0].AvgBuyPrice.Equal(decimal.NewFromInt(2000)))
	require.True(t, s.Trades()[0].Price.Equal(decimal.NewFromInt(2000)))
}

func TestSessionRejectionsLeaveStateUntouched(t *testing.T) {
	s := newTestSession(t)
	_, err := s.SubmitOrder(marketOrder(domain.SideBuy, "BTC/USDT", decimal.NewFromInt(1)), decimal.NewFromInt(50000))
	require.NoError(t, err)

	before := s.View()
	beforeTrades := len(s.Trades())

	cases := []struct {
		name string
		req  domain.OrderRequest
		ref  decimal.Decimal
		want error
	}{
		{
			name: "insufficient balance",
			req:  marketOrder(domain.SideBuy, "BTC/USDT", decimal.NewFromInt(10)),
			ref:  decimal.NewFromInt(50000),
			want: ErrInsufficientBalance,
		},
		{
			name: "insufficient holdings",
			req:  marketOrder(domain.SideSell, "BTC/USDT", decimal.NewFromInt(5)),
			ref:  decimal.NewFromInt(50000),
			want: ErrInsufficientHoldings,
		},
		{
			name: "zero amount",
			req:  marketOrder(domain.SideBuy, "BTC/USDT", decimal.Zero),
			ref:  decimal.NewFromInt(50000),
			want: ErrInvalidOrder,
		},
		{
			name: "negative price",
			req: domain.OrderRequest{
				Side: domain.SideBuy, OrderType: domain.OrderTypeLimit,
				Symbol: "BTC/USDT", Price: decimal.NewFromInt(-1), Amount: decimal.NewFromInt(1),
			},
			want: ErrInvalidOrder,
		},
		{
			name: "malformed symbol",
			req:  marketOrder(domain.SideBuy, "BTCUSDT", decimal.NewFromInt(1)),
			ref:  decimal.NewFromInt(50000),
			want: ErrInvalidOrder,
		},
		{
			name: "unknown side",
			req: domain.OrderRequest{
				Side: "hold", OrderType: domain.OrderTypeMarket,
				Symbol: "BTC/USDT", Amount: decimal.NewFromInt(1),
			},
			ref:  decimal.NewFromInt(50000),
			want: ErrInvalidOrder,
		},
		{
			name: "unknown order type",
			req: domain.OrderRequest{
				Side: domain.SideBuy, OrderType: "stop",
				Symbol: "BTC/USDT", Amount: decimal.NewFromInt(1),
			},
			want: ErrInvalidOrder,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.SubmitOrder(tc.req, tc.ref)
			require.ErrorIs(t, err, tc.want)

			after := s.View()
			require.True(t, after.Balance.Equal(before.Balance), "balance must not move on rejection")
			require.Equal(t, len(before.Holdings), len(after.Holdings))
			require.Equal(t, beforeTrades, len(s.Trades()), "rejected orders must not be logged")
		})
	}
}

func TestSessionExactBalanceSpend(t *testing.T) {
	s := newTestSession(t)

	view, err := s.SubmitOrder(marketOrder(domain.SideBuy, "BTC/USDT", decimal.NewFromInt(2)), decimal.NewFromInt(50000))
	require.NoError(t, err)
	require.True(t, view.Balance.IsZero(), "spending the exact balance is allowed")
}

func TestSessionResets(t *testing.T) {
	s := newTestSession(t)
	_, err := s.SubmitOrder(marketOrder(domain.SideBuy, "BTC/USDT", decimal.NewFromInt(1)), decimal.NewFromInt(50000))
	require.NoError(t, err)

	s.ResetPortfolio()
	require.Empty(t, s.Holdings())
	require.True(t, s.Balance().Equal(decimal.NewFromInt(50000)), "portfolio reset must not touch the balance")

	s.ResetBalance()
	require.True(t, s.Balance().Equal(decimal.NewFromInt(100000)))

	s.ClearTrades()
	require.Empty(t, s.Trades())

	// resets are idempotent
	s.ResetPortfolio()
	s.ResetBalance()
	s.ClearTrades()
	require.Empty(t, s.Holdings())
	require.True(t, s.Balance().Equal(decimal.NewFromInt(100000)))
}

func TestSessionReplaceHoldings(t *testing.T) {
	s := newTestSession(t)

	err := s.ReplaceHoldings([]domain.Holding{
		{Asset: "BTC", Quantity: decimal.NewFromInt(1), AvgBuyPrice: decimal.NewFromInt(45000)},
	})
	require.NoError(t, err)
	require.Len(t, s.Holdings(), 1)
	require.True(t, s.Holding("BTC").AvgBuyPrice.Equal(decimal.NewFromInt(45000)))

	err = s.ReplaceHoldings([]domain.Holding{
		{Asset: "BTC", Quantity: decimal.NewFromInt(-1)},
	})
	require.ErrorIs(t, err, ErrInvalidHoldingsState)
	require.Len(t, s.Holdings(), 1, "failed replace must leave holdings untouched")
}

func TestSessionPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()

	state, err := sessionstate.NewStore(dir)
	require.NoError(t, err)
	journal, err := tradewal.NewStore(dir)
	require.NoError(t, err)

	s, err := NewSession(decimal.NewFromInt(100000), zap.NewNop(), state, journal)
	require.NoError(t, err)

	_, err = s.SubmitOrder(marketOrder(domain.SideBuy, "BTC/USDT", decimal.NewFromInt(1)), decimal.NewFromInt(50000))
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	journal2, err := tradewal.NewStore(dir)
	require.NoError(t, err)
	defer journal2.Close()

	restored, err := NewSession(decimal.NewFromInt(100000), zap.NewNop(), state, journal2)
	require.NoError(t, err)

	require.True(t, restored.Balance().Equal(decimal.NewFromInt(50000)))
	require.Len(t, restored.Holdings(), 1)
	require.True(t, restored.Holdings()[0].Quantity.Equal(decimal.NewFromInt(1)))
	require.Len(t, restored.Trades(), 1)
	require.Equal(t, s.Trades()[0].ID, restored.Trades()[0].ID)
}
