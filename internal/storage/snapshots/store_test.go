package snapshots

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/okulov/paperbook/internal/domain"
)

func snap(ts int64) domain.BookSnapshot {
	return domain.BookSnapshot{
		Timestamp: ts,
		Bids:      []domain.PriceLevel{{Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(1)}},
		Asks:      []domain.PriceLevel{{Price: decimal.NewFromInt(101), Quantity: decimal.NewFromInt(2)}},
	}
}

func TestStoreKeepsLastTenPerKey(t *testing.T) {
	s := NewStore()

	for i := 1; i <= 11; i++ {
		s.Record("binance", "BTC/USDT", snap(int64(i)))
	}

	history := s.History("binance", "BTC/USDT")
	require.Len(t, history, 10)
	require.Equal(t, int64(2), history[0].Timestamp, "oldest snapshot should have been evicted")
	require.Equal(t, int64(11), history[9].Timestamp)
}

func TestStoreKeysIndependent(t *testing.T) {
	s := NewStore()

	s.Record("binance", "BTC/USDT", snap(1))
	s.Record("binance", "ETH/USDT", snap(2))
	s.Record("bybit", "BTC/USDT", snap(3))

	require.Len(t, s.History("binance", "BTC/USDT"), 1)
	require.Len(t, s.History("binance", "ETH/USDT"), 1)
	require.Len(t, s.History("bybit", "BTC/USDT"), 1)
	require.Equal(t, int64(3), s.History("bybit", "BTC/USDT")[0].Timestamp)
}

func TestStoreUnseenKeyReturnsEmpty(t *testing.T) {
	s := NewStore()

	history := s.History("binance", "XRP/USDT")
	require.NotNil(t, history)
	require.Empty(t, history)
}

func TestStoreIgnoresAnonymousSnapshots(t *testing.T) {
	s := NewStore()

	s.Record("", "BTC/USDT", snap(1))
	s.Record("binance", "", snap(2))

	require.Empty(t, s.History("", "BTC/USDT"))
	require.Empty(t, s.History("binance", ""))
}

func TestStoreHistoryReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Record("binance", "BTC/USDT", snap(1))
	s.Record("binance", "BTC/USDT", snap(2))

	history := s.History("binance", "BTC/USDT")
	history[0].Timestamp = 999

	require.Equal(t, int64(1), s.History("binance", "BTC/USDT")[0].Timestamp)
}

func TestStoreConcurrentRecord(t *testing.T) {
	s := NewStore()
	done := make(chan struct{})

	for g := 0; g < 4; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			symbol := fmt.Sprintf("SYM%d/USDT", g)
			for i := 0; i < 50; i++ {
				s.Record("binance", symbol, snap(int64(i)))
				s.History("binance", symbol)
			}
		}(g)
	}
	for g := 0; g < 4; g++ {
		<-done
	}

	for g := 0; g < 4; g++ {
		require.Len(t, s.History("binance", fmt.Sprintf("SYM%d/USDT", g)), 10)
	}
}
