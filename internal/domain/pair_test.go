package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPairFromSymbol(t *testing.T) {
	pair, err := PairFromSymbol("BTC/USDT")
	require.NoError(t, err)
	require.Equal(t, "BTC", pair.Base)
	require.Equal(t, "USDT", pair.Quote)
	require.Equal(t, "BTC/USDT", pair.String())
	require.Equal(t, "BTCUSDT", pair.Symbol())
}

func TestPairFromSymbolNormalizesCase(t *testing.T) {
	pair, err := PairFromSymbol("eth/usdt")
	require.NoError(t, err)
	require.Equal(t, "ETH", pair.Base)
	require.Equal(t, "USDT", pair.Quote)
}

func TestPairFromSymbolRejectsMalformed(t *testing.T) {
	for _, symbol := range []string{"", "BTCUSDT", "BTC/", "/USDT", "BTC/USDT/EXTRA", "/"} {
		_, err := PairFromSymbol(symbol)
		require.Error(t, err, "symbol %q should be rejected", symbol)
	}
}

func TestPriceLevelMarshalsAsArray(t *testing.T) {
	level := PriceLevel{Price: decimal.NewFromFloat(50000.5), Quantity: decimal.NewFromFloat(0.25)}

	data, err := json.Marshal(level)
	require.NoError(t, err)
	require.JSONEq(t, `["50000.5","0.25"]`, string(data))

	var back PriceLevel
	require.NoError(t, json.Unmarshal(data, &back))
	require.True(t, back.Price.Equal(level.Price))
	require.True(t, back.Quantity.Equal(level.Quantity))
}

func TestPriceLevelUnmarshalAcceptsNumbers(t *testing.T) {
	var level PriceLevel
	require.NoError(t, json.Unmarshal([]byte(`[50000.5, 0.25]`), &level))
	require.True(t, level.Price.Equal(decimal.NewFromFloat(50000.5)))

	require.Error(t, json.Unmarshal([]byte(`{"price": 1}`), &level))
}

func TestHoldingUnrealizedPnL(t *testing.T) {
	h := Holding{
		Asset:       "BTC",
		Quantity:    decimal.NewFromInt(2),
		AvgBuyPrice: decimal.NewFromInt(50000),
		Active:      true,
	}

	pnl := h.UnrealizedPnL(decimal.NewFromInt(55000))
	require.True(t, pnl.Equal(decimal.NewFromInt(10000)))

	pnl = h.UnrealizedPnL(decimal.NewFromInt(45000))
	require.True(t, pnl.Equal(decimal.NewFromInt(-10000)))
}
