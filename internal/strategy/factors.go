package strategy

import (
	"CoinScreener/internal/calculator"
	"CoinScreener/internal/model"
)

// Zone thresholds in percent.
const (
	emaZonePct = 2.0
	fibZonePct = 1.0
)

const (
	volumeSMAPeriod   = 20
	volumeSpikeFactor = 1.5
	volumeTrendWindow = 3
)

// above reports a > b when both indicators were computed.
func above(ind model.Indicators, a, b model.Indicator) bool {
	return ind.Has(a) && ind.Has(b) && value(ind, a) > value(ind, b)
}

func value(ind model.Indicators, i model.Indicator) float64 {
	switch i {
	case model.EMA20:
		return ind.EMA20
	case model.EMA50:
		return ind.EMA50
	case model.EMA100:
		return ind.EMA100
	case model.EMA200:
		return ind.EMA200
	case model.RSI14:
		return ind.RSI
	case model.SMA50:
		return ind.SMA50
	case model.ATR14:
		return ind.ATR
	}
	return 0
}

// analyzeTrend checks EMA ordering across timeframes.
// Alignment: 15m EMA20 > EMA50, 1h EMA50 > EMA100, 1h EMA100 > 4h EMA200,
// and price above 4h EMA200.
func analyzeTrend(calc *calculator.Calculator, price float64, ind15m, ind1h, ind4h model.Indicators) model.TrendAnalysis {
	has200 := ind4h.Has(model.EMA200)

	a := model.EmaAlignment{
		Ema20Above50:   above(ind15m, model.EMA20, model.EMA50),
		Ema50Above100:  above(ind1h, model.EMA50, model.EMA100),
		Ema100Above200: ind1h.Has(model.EMA100) && has200 && ind1h.EMA100 > ind4h.EMA200,
	}
	a.AllAligned = a.Ema20Above50 && a.Ema50Above100 && a.Ema100Above200 && price > ind4h.EMA200

	cross := func(ind model.Indicators) bool {
		return ind.Has(model.EMA20) && ind.Has(model.EMA50) && calc.CheckGoldenCross(ind.EMA20, ind.EMA50)
	}

	return model.TrendAnalysis{
		EmaAlignment:   a,
		GoldenCross15m: cross(ind15m),
		GoldenCross1H:  cross(ind1h),
		GoldenCross4H:  cross(ind4h),
		TrendDirection: trendDirection(price, ind15m, ind1h, ind4h),
	}
}

// trendDirection takes three votes: 15m EMA20 vs EMA50, 1h EMA20 vs EMA50 and
// price vs 4h EMA200. A missing input or an exact tie abstains. A direction
// needs at least two votes and more votes than the opposite side.
func trendDirection(price float64, ind15m, ind1h, ind4h model.Indicators) model.TrendDirection {
	var bull, bear int
	vote := func(ok bool, a, b float64) {
		switch {
		case !ok:
		case a > b:
			bull++
		case a < b:
			bear++
		}
	}
	vote(ind15m.Has(model.EMA20) && ind15m.Has(model.EMA50), ind15m.EMA20, ind15m.EMA50)
	vote(ind1h.Has(model.EMA20) && ind1h.Has(model.EMA50), ind1h.EMA20, ind1h.EMA50)
	vote(ind4h.Has(model.EMA200), price, ind4h.EMA200)

	switch {
	case bull >= 2 && bull > bear:
		return model.Uptrend
	case bear >= 2 && bear > bull:
		return model.Downtrend
	default:
		return model.Sideways
	}
}

// analyzePullback measures how close price sits to the 1h EMAs and to the
// retracement levels of the 1h window.
func analyzePullback(price float64, c1h []model.Candle, ind1h model.Indicators) (model.PullbackAnalysis, error) {
	levels, err := calculator.CalculatePullbackLevels(c1h)
	if err != nil {
		return model.PullbackAnalysis{}, err
	}

	dist := func(i model.Indicator) float64 {
		if !ind1h.Has(i) {
			return model.Unavailable
		}
		return calculator.PercentDistance(price, value(ind1h, i))
	}
	ema := model.EmaProximity{
		ToEma20:  dist(model.EMA20),
		ToEma50:  dist(model.EMA50),
		ToEma100: dist(model.EMA100),
	}
	ema.InZone = inZone(emaZonePct, ema.ToEma20, ema.ToEma50, ema.ToEma100)

	fib := model.FibRetracement{
		To0382: calculator.PercentDistance(price, levels.Level0382),
		To05:   calculator.PercentDistance(price, levels.Level05),
		To0618: calculator.PercentDistance(price, levels.Level0618),
	}
	fib.InZone = inZone(fibZonePct, fib.To0382, fib.To05, fib.To0618)

	return model.PullbackAnalysis{
		EmaProximity:   ema,
		FibRetracement: fib,
		Levels:         levels,
		InPullbackZone: ema.InZone || fib.InZone,
	}, nil
}

func inZone(limit float64, distances ...float64) bool {
	for _, d := range distances {
		if d != model.Unavailable && d <= limit {
			return true
		}
	}
	return false
}

// analyzeMomentum: RSI 15m above 50 with RSI 1h in [40, 60], and a 15m MACD
// line above its signal with a rising histogram.
func analyzeMomentum(ind15m, ind1h model.Indicators) model.MomentumAnalysis {
	rsi := model.RsiConditions{
		Rsi15m:              ind15m.RSI,
		Rsi1H:               ind1h.RSI,
		Rsi15mAbove50:       ind15m.Has(model.RSI14) && ind15m.RSI > 50,
		Rsi1HBetween40and60: ind1h.Has(model.RSI14) && ind1h.RSI >= 40 && ind1h.RSI <= 60,
	}
	rsi.Confirmed = rsi.Rsi15mAbove50 && rsi.Rsi1HBetween40and60

	m := ind15m.MACD
	macd := model.MacdConditions{
		MacdLine:   m.Line,
		SignalLine: m.Signal,
		Histogram:  m.Histogram,
	}
	if !m.IsZero() {
		macd.MacdAboveSignal = m.Line > m.Signal
		macd.HistogramIncreasing = m.Histogram > m.PrevHistogram
	}
	macd.Confirmed = macd.MacdAboveSignal && macd.HistogramIncreasing

	return model.MomentumAnalysis{
		RsiConditions:        rsi,
		MacdConditions:       macd,
		MomentumConfirmation: rsi.Confirmed && macd.Confirmed,
	}
}

// analyzeVolume flags a spike over the 20-sample average, or rising volume on
// a rising 1h close.
func analyzeVolume(vol model.VolumeSeries, c1h []model.Candle) model.VolumeAnalysis {
	var va model.VolumeAnalysis
	current, ok := calculator.Last(vol.Values)
	if !ok {
		return va
	}
	va.CurrentVolume = current

	if avg, ok := calculator.Last(calculator.CalculateSMA(vol.Values, volumeSMAPeriod)); ok {
		va.AverageVolume = avg
		va.VolumeSpike = current > avg*volumeSpikeFactor
	}

	if n := len(c1h); n >= 2 && c1h[n-1].Close > c1h[n-2].Close {
		window := vol.Values[max(0, len(vol.Values)-volumeTrendWindow):]
		sum := 0.0
		for _, v := range window {
			sum += v
		}
		va.VolumeTrendConfirmation = current > sum/float64(len(window))
	}

	va.VolumeConfirmation = va.VolumeSpike || va.VolumeTrendConfirmation
	return va
}
