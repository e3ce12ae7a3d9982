package calculator

import (
	"CoinScreener/internal/model"
)

// Periods used for the per-timeframe indicator snapshot.
const (
	RSIPeriod = 14
	ATRPeriod = 14
	SMAPeriod = 50
)

var emaPeriods = []struct {
	ind    model.Indicator
	period int
}{
	{model.EMA20, 20},
	{model.EMA50, 50},
	{model.EMA100, 100},
	{model.EMA200, 200},
}

// Calculator computes indicator snapshots from candle series. It holds no state
// and is safe for concurrent use.
type Calculator struct{}

// New creates a Calculator.
func New() *Calculator { return &Calculator{} }

// CalculateAll computes the full indicator snapshot for one timeframe. Indicators
// whose window exceeds the series are left at zero and listed in Missing.
func (c *Calculator) CalculateAll(candles []model.Candle) model.Indicators {
	closes := Closes(candles)
	var ind model.Indicators

	for _, e := range emaPeriods {
		v, ok := Last(CalculateEMA(closes, e.period))
		if !ok {
			ind.Missing = append(ind.Missing, e.ind)
			continue
		}
		switch e.ind {
		case model.EMA20:
			ind.EMA20 = v
		case model.EMA50:
			ind.EMA50 = v
		case model.EMA100:
			ind.EMA100 = v
		case model.EMA200:
			ind.EMA200 = v
		}
	}

	if v, ok := Last(CalculateRSI(closes, RSIPeriod)); ok {
		ind.RSI = v
	} else {
		ind.Missing = append(ind.Missing, model.RSI14)
	}

	ind.MACD = CalculateMACD(closes)
	if ind.MACD.IsZero() {
		ind.Missing = append(ind.Missing, model.MACDInd)
	}

	if v, ok := Last(CalculateSMA(closes, SMAPeriod)); ok {
		ind.SMA50 = v
	} else {
		ind.Missing = append(ind.Missing, model.SMA50)
	}

	if v, ok := Last(CalculateATR(candles, ATRPeriod)); ok {
		ind.ATR = v
	} else {
		ind.Missing = append(ind.Missing, model.ATR14)
	}

	return ind
}

// CheckGoldenCross reports whether the short EMA is above the long EMA.
func (c *Calculator) CheckGoldenCross(emaShort, emaLong float64) bool {
	return emaShort > emaLong
}

// MinCandles is the shortest series for which the base indicators (EMA20, RSI14,
// ATR14) can all be computed.
const MinCandles = 20

// RequireBase fails with *model.InsufficientDataError naming the first base
// indicator that cannot be computed from candles.
func (c *Calculator) RequireBase(symbol string, tf model.Timeframe, candles []model.Candle) error {
	checks := []struct {
		name string
		need int
	}{
		{model.EMA20.String(), 20},
		{model.RSI14.String(), RSIPeriod + 1},
		{model.ATR14.String(), ATRPeriod + 1},
	}
	for _, chk := range checks {
		if len(candles) < chk.need {
			return &model.InsufficientDataError{
				Symbol:    symbol,
				Timeframe: tf,
				Indicator: chk.name,
				Need:      chk.need,
				Have:      len(candles),
			}
		}
	}
	return nil
}
