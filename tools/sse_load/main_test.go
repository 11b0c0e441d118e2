package main

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/okulov/paperbook/internal/domain"
)

func bookWithTop(bid, ask int64) domain.OrderBook {
	return domain.OrderBook{
		Bids: []domain.PriceLevel{{Price: decimal.NewFromInt(bid), Quantity: decimal.NewFromInt(1)}},
		Asks: []domain.PriceLevel{{Price: decimal.NewFromInt(ask), Quantity: decimal.NewFromInt(1)}},
	}
}

func TestBookStatsAverageSpread(t *testing.T) {
	s := &bookStats{}
	s.observe(bookWithTop(99, 101)) // spread 2
	s.observe(bookWithTop(98, 102)) // spread 4

	events, decodeErrs, emptyBooks, crossed, avgSpread, avgLevels := s.snapshot()
	require.Equal(t, int64(2), events)
	require.Zero(t, decodeErrs)
	require.Zero(t, emptyBooks)
	require.Zero(t, crossed)
	require.True(t, avgSpread.Equal(decimal.NewFromInt(3)), "got %s", avgSpread)
	require.Equal(t, 2.0, avgLevels)
}

func TestBookStatsCrossedAndEmptyBooks(t *testing.T) {
	s := &bookStats{}
	s.observe(bookWithTop(101, 99)) // crossed, excluded from spread
	s.observe(domain.OrderBook{})   // empty
	s.observe(bookWithTop(100, 100))
	s.decodeError()

	events, decodeErrs, emptyBooks, crossed, avgSpread, _ := s.snapshot()
	require.Equal(t, int64(3), events)
	require.Equal(t, int64(1), decodeErrs)
	require.Equal(t, int64(1), emptyBooks)
	require.Equal(t, int64(1), crossed)
	require.True(t, avgSpread.IsZero(), "only the zero-spread touch counts, got %s", avgSpread)
}
