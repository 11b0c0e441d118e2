// Package indicators computes technical analysis summaries over fetched
// candles using the cinar/indicator library.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"

	"github.com/okulov/paperbook/internal/domain"
)

// minKlines is the smallest candle window for which every summary indicator
// is defined.
const minKlines = 50

// Summary holds the latest value of each computed indicator.
type Summary struct {
	// SMA20 is the 20-period Simple Moving Average.
	SMA20 decimal.Decimal `json:"sma20"`
	// EMA20 is the 20-period Exponential Moving Average.
	EMA20 decimal.Decimal `json:"ema20"`
	// EMA50 is the 50-period Exponential Moving Average.
	EMA50 decimal.Decimal `json:"ema50"`
	// RSI14 is the 14-period Relative Strength Index.
	RSI14 decimal.Decimal `json:"rsi14"`
}

// CalculateSMA calculates the Simple Moving Average for the given period.
func CalculateSMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(closes))
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	out := helper.ChanToSlice(sma.Compute(helper.SliceToChan(decimalsToFloat64(closes))))
	return float64ToDecimals(out), nil
}

// CalculateEMA calculates the Exponential Moving Average for the given period.
func CalculateEMA(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(closes))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	out := helper.ChanToSlice(ema.Compute(helper.SliceToChan(decimalsToFloat64(closes))))
	return float64ToDecimals(out), nil
}

// CalculateRSI calculates the Relative Strength Index for the given period.
func CalculateRSI(closes []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	if len(closes) < period+1 {
		return nil, fmt.Errorf("not enough data points for RSI: need %d, got %d", period+1, len(closes))
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	out := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(decimalsToFloat64(closes))))
	return float64ToDecimals(out), nil
}

// Summarize computes the summary indicators from the candle closes, oldest
// first.
func Summarize(klines []domain.Kline) (Summary, error) {
	if len(klines) < minKlines {
		return Summary{}, fmt.Errorf("not enough candles: need at least %d, got %d", minKlines, len(klines))
	}

	closes := make([]decimal.Decimal, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}

	sma20, err := CalculateSMA(closes, 20)
	if err != nil {
		return Summary{}, fmt.Errorf("calculate SMA20: %w", err)
	}
	ema20, err := CalculateEMA(closes, 20)
	if err != nil {
		return Summary{}, fmt.Errorf("calculate EMA20: %w", err)
	}
	ema50, err := CalculateEMA(closes, 50)
	if err != nil {
		return Summary{}, fmt.Errorf("calculate EMA50: %w", err)
	}
	rsi14, err := CalculateRSI(closes, 14)
	if err != nil {
		return Summary{}, fmt.Errorf("calculate RSI14: %w", err)
	}

	return Summary{
		SMA20: last(sma20),
		EMA20: last(ema20),
		EMA50: last(ema50),
		RSI14: last(rsi14),
	}, nil
}

func last(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return values[len(values)-1]
}

func decimalsToFloat64(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i], _ = v.Float64()
	}
	return out
}

func float64ToDecimals(values []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}
