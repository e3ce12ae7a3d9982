package calculator

import (
	"errors"
	"math"

	"CoinScreener/internal/model"
)

// ErrEmptyWindow is returned when a high/low scan has no candles to look at.
var ErrEmptyWindow = errors.New("empty candle window")

var fibFractions = [...]float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1.0}

// tail returns the most recent n candles, or all of them when n <= 0 or n > len.
func tail(candles []model.Candle, n int) []model.Candle {
	if n <= 0 || n > len(candles) {
		return candles
	}
	return candles[len(candles)-n:]
}

// HighestHigh scans the most recent n candles and returns the highest high.
func HighestHigh(candles []model.Candle, n int) (float64, error) {
	window := tail(candles, n)
	if len(window) == 0 {
		return 0, ErrEmptyWindow
	}
	high := math.Inf(-1)
	for _, c := range window {
		if c.High > high {
			high = c.High
		}
	}
	return high, nil
}

// LowestLow scans the most recent n candles and returns the lowest low.
func LowestLow(candles []model.Candle, n int) (float64, error) {
	window := tail(candles, n)
	if len(window) == 0 {
		return 0, ErrEmptyWindow
	}
	low := math.Inf(1)
	for _, c := range window {
		if c.Low < low {
			low = c.Low
		}
	}
	return low, nil
}

// CalculatePullbackLevels derives Fibonacci retracement levels from the high and
// low of the whole window. A flat window returns the flat price for every level.
func CalculatePullbackLevels(candles []model.Candle) (model.PullbackLevels, error) {
	high, err := HighestHigh(candles, 0)
	if err != nil {
		return model.PullbackLevels{}, err
	}
	low, _ := LowestLow(candles, 0)

	rng := high - low
	if rng <= 0 {
		return model.PullbackLevels{
			Level0: high, Level0236: high, Level0382: high, Level05: high,
			Level0618: high, Level0786: high, Level1: high,
		}, nil
	}

	var lv [len(fibFractions)]float64
	for i, f := range fibFractions {
		lv[i] = high - rng*f
	}
	lv[0], lv[len(lv)-1] = high, low

	return model.PullbackLevels{
		Level0:    lv[0],
		Level0236: lv[1],
		Level0382: lv[2],
		Level05:   lv[3],
		Level0618: lv[4],
		Level0786: lv[5],
		Level1:    lv[6],
	}, nil
}

// Volatility is the mean absolute close-to-close return over the trailing n samples.
// Returns 0 when fewer than n candles are available.
func Volatility(candles []model.Candle, n int) float64 {
	if n <= 0 || len(candles) < n {
		return 0
	}
	start := len(candles) - n
	if start < 1 {
		start = 1
	}
	sum, count := 0.0, 0
	for i := start; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			continue
		}
		sum += math.Abs(candles[i].Close-prev) / prev
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// PercentDistance returns |price-level|/level*100, or model.Unavailable when level <= 0.
func PercentDistance(price, level float64) float64 {
	if level <= 0 {
		return model.Unavailable
	}
	return math.Abs(price-level) / level * 100
}
