package indicators

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/okulov/paperbook/internal/domain"
)

func constantCloses(n int, value int64) []decimal.Decimal {
	closes := make([]decimal.Decimal, n)
	for i := range closes {
		closes[i] = decimal.NewFromInt(value)
	}
	return closes
}

func TestCalculateSMAConstantSeries(t *testing.T) {
	out, err := CalculateSMA(constantCloses(30, 100), 20)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	got := out[len(out)-1]
	diff := got.Sub(decimal.NewFromInt(100)).Abs()
	require.True(t, diff.LessThan(decimal.NewFromFloat(0.0001)), "SMA of a flat series should be the series value, got %s", got)
}

func TestCalculateSMAKnownWindow(t *testing.T) {
	closes := []decimal.Decimal{
		decimal.NewFromInt(1), decimal.NewFromInt(2), decimal.NewFromInt(3),
		decimal.NewFromInt(4), decimal.NewFromInt(5),
	}

	out, err := CalculateSMA(closes, 3)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	// last window is (3+4+5)/3 = 4
	got := out[len(out)-1]
	require.True(t, got.Sub(decimal.NewFromInt(4)).Abs().LessThan(decimal.NewFromFloat(0.0001)), "got %s", got)
}

func TestCalculateRejectsShortSeries(t *testing.T) {
	_, err := CalculateSMA(constantCloses(10, 100), 20)
	require.Error(t, err)

	_, err = CalculateEMA(constantCloses(10, 100), 20)
	require.Error(t, err)

	_, err = CalculateRSI(constantCloses(14, 100), 14)
	require.Error(t, err, "RSI needs period+1 points")
}

func TestSummarize(t *testing.T) {
	base := time.Now().Add(-60 * time.Hour)
	klines := make([]domain.Kline, 60)
	for i := range klines {
		price := decimal.NewFromInt(int64(1000 + i))
		klines[i] = domain.Kline{
			OpenTime:  base.Add(time.Duration(i) * time.Hour),
			Open:      price,
			High:      price.Add(decimal.NewFromInt(5)),
			Low:       price.Sub(decimal.NewFromInt(5)),
			Close:     price,
			Volume:    decimal.NewFromInt(10),
			CloseTime: base.Add(time.Duration(i+1) * time.Hour),
		}
	}

	summary, err := Summarize(klines)
	require.NoError(t, err)

	// closes rise monotonically, so every average sits below the last close
	// and RSI saturates at the top of its range
	lastClose := klines[len(klines)-1].Close
	require.True(t, summary.SMA20.LessThan(lastClose))
	require.True(t, summary.EMA20.LessThan(lastClose))
	require.True(t, summary.EMA50.LessThan(lastClose))
	require.True(t, summary.EMA50.LessThan(summary.EMA20), "the slower average lags further behind in an uptrend")
	require.True(t, summary.RSI14.GreaterThan(decimal.NewFromInt(90)), "got RSI %s", summary.RSI14)
}

func TestSummarizeRejectsShortWindow(t *testing.T) {
	_, err := Summarize(make([]domain.Kline, 49))
	require.Error(t, err)
}
