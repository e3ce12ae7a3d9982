package calculator

import "CoinScreener/internal/model"

// CalculateEMA computes the exponential moving average of values over period.
// The first point is the arithmetic mean of the first period values and there is
// one point per input index from period-1 onward. Returns nil if len(values) < period.
func CalculateEMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, len(values)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[0] = sum / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		j := i - period + 1
		out[j] = (values[i]-out[j-1])*k + out[j-1]
	}
	return out
}

// CalculateSMA computes the rolling simple moving average with stride 1.
// Partial windows are not emitted. Returns nil if len(values) < period.
func CalculateSMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	out := make([]float64, len(values)-period+1)
	for i := range out {
		sum := 0.0
		for _, v := range values[i : i+period] {
			sum += v
		}
		out[i] = sum / float64(period)
	}
	return out
}

// Closes extracts closing prices.
func Closes(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// Last returns the final element of a series, or false when the series is empty.
func Last(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

// Volumes extracts traded volumes.
func Volumes(candles []model.Candle) []float64 {
	vols := make([]float64, len(candles))
	for i, c := range candles {
		vols[i] = c.Volume
	}
	return vols
}
