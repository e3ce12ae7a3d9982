package calculator

import (
	"math"

	"CoinScreener/internal/model"
)

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(c model.Candle, prevClose float64) float64 {
	return math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
}

// CalculateATR computes the Wilder-smoothed average true range.
// Requires len(candles) >= period+1, otherwise returns nil.
func CalculateATR(candles []model.Candle, period int) []float64 {
	if period <= 0 || len(candles) < period+1 {
		return nil
	}
	tr := make([]float64, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		tr[i-1] = TrueRange(candles[i], candles[i-1].Close)
	}

	out := make([]float64, len(tr)-period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[0] = sum / float64(period)
	for i := period; i < len(tr); i++ {
		j := i - period + 1
		out[j] = (out[j-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}
