package pattern

import (
	"math"

	"CoinScreener/internal/model"
)

// breakoutMargin is how far the current high must clear EMA50.
const breakoutMargin = 1.005

// Detector recognises candlestick setups on the tail of a candle series.
type Detector struct{}

// New creates a Detector.
func New() *Detector { return &Detector{} }

// DetectSignals runs every check on the 15m series, then on the 1h series.
// Hammer and breakout need EMA50 and are skipped on a timeframe without it.
func (d *Detector) DetectSignals(c15m, c1h []model.Candle, ind15m, ind1h model.Indicators) []model.PriceActionSignal {
	var signals []model.PriceActionSignal
	signals = append(signals, d.detect(model.M15, c15m, ind15m)...)
	signals = append(signals, d.detect(model.H1, c1h, ind1h)...)
	return signals
}

func (d *Detector) detect(tf model.Timeframe, candles []model.Candle, ind model.Indicators) []model.PriceActionSignal {
	var out []model.PriceActionSignal
	add := func(kind model.SignalKind) {
		out = append(out, model.PriceActionSignal{Kind: kind, Timeframe: tf})
	}

	if IsBullishEngulfing(candles) {
		add(model.BullishEngulfing)
	}
	if IsMorningStar(candles) {
		add(model.MorningStar)
	}
	if !ind.Has(model.EMA50) || len(candles) == 0 {
		return out
	}
	if IsHammer(candles[len(candles)-1], ind.EMA50) {
		add(model.Hammer)
	}
	if IsBreakoutAboveEMA50(candles, ind.EMA50) {
		add(model.BreakoutAboveEMA50)
	}
	return out
}

// IsBullishEngulfing checks the last two candles: a bearish candle followed by a
// bullish one that opens below its close and closes above its open.
func IsBullishEngulfing(candles []model.Candle) bool {
	if len(candles) < 2 {
		return false
	}
	prev, cur := candles[len(candles)-2], candles[len(candles)-1]
	return prev.Bearish() &&
		cur.Open < prev.Close &&
		cur.Close > prev.Open &&
		cur.Bullish()
}

// IsMorningStar checks the last three candles.
func IsMorningStar(candles []model.Candle) bool {
	if len(candles) < 3 {
		return false
	}
	n := len(candles)
	first, second, third := candles[n-3], candles[n-2], candles[n-1]
	return first.Bearish() &&
		second.Open < first.Close && // gap down
		second.Bearish() &&
		third.Open > second.Close && // gap up
		third.Bullish() &&
		third.Close > first.Close
}

// IsHammer reports a long lower shadow (at least twice the body), a short upper
// shadow (at most half the body) and a close above ema50.
func IsHammer(c model.Candle, ema50 float64) bool {
	body := math.Abs(c.Open - c.Close)
	lower := math.Min(c.Open, c.Close) - c.Low
	upper := c.High - math.Max(c.Open, c.Close)
	// a candle without a lower shadow is not a hammer even when the body is zero
	if lower <= 0 {
		return false
	}
	return lower >= 2*body && upper <= 0.5*body && c.Close > ema50
}

// IsBreakoutAboveEMA50 reports whether the three candles before the current one
// all stayed below ema50 and the current candle closed above it with its high
// clearing the margin.
func IsBreakoutAboveEMA50(candles []model.Candle, ema50 float64) bool {
	if len(candles) < 4 || ema50 <= 0 {
		return false
	}
	n := len(candles)
	for _, c := range candles[n-4 : n-1] {
		if c.High >= ema50 {
			return false
		}
	}
	cur := candles[n-1]
	return cur.Close > ema50 && cur.High > ema50*breakoutMargin
}
