package collector

import (
	"context"

	"CoinScreener/internal/calculator"
	"CoinScreener/internal/model"
)

// Fetcher defines the interface for fetching market data. Candle series are
// returned oldest first and contain at most limit candles.
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.Candle, error)
	FetchVolumeSeries(ctx context.Context, symbol string, tf model.Timeframe, limit int) (model.VolumeSeries, error)
	Name() string
}

// VolumeFromCandles builds a volume series from the tail of a candle series.
func VolumeFromCandles(symbol string, candles []model.Candle, limit int) model.VolumeSeries {
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	vs := model.VolumeSeries{
		Symbol: symbol,
		Values: calculator.Volumes(candles),
		Times:  make([]int64, len(candles)),
	}
	for i, c := range candles {
		vs.Times[i] = c.Time
	}
	return vs
}
