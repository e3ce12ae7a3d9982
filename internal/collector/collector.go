package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"CoinScreener/internal/model"
)

// Default request sizes.
const (
	DefaultCandleLimit = 250
	DefaultVolumeLimit = 20
)

// mockEnd anchors synthetic series so repeated runs produce identical data.
// It falls on a 4h boundary so resampled buckets are complete.
var mockEnd = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// maxMockLimit matches the exchange's klines cap.
const maxMockLimit = 1000

// mockHistory is the length in 15m candles of the synthetic history: enough
// for the largest 4h request.
const mockHistory = maxMockLimit * 16

// MockFetcher returns controllable fixed data for development and testing.
// Without overrides it serves a steady synthetic uptrend. Every timeframe is
// resampled from one 15m history, so all views agree on price and volume.
type MockFetcher struct {
	Base    float64
	Candles map[model.Timeframe][]model.Candle
	Err     error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(_ context.Context, _ string, tf model.Timeframe, limit int) ([]model.Candle, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if c, ok := m.Candles[tf]; ok {
		if limit > 0 && len(c) > limit {
			c = c[len(c)-limit:]
		}
		return c, nil
	}
	if limit <= 0 {
		limit = DefaultCandleLimit
	}
	limit = min(limit, maxMockLimit)
	base := m.Base
	if base <= 0 {
		base = 100
	}
	ratio := int(tf.Millis() / model.M15.Millis())
	series := generateMockCandles(base, limit*ratio, mockEnd)
	if ratio > 1 {
		series = Resample(series, tf.Millis())
	}
	if len(series) > limit {
		series = series[len(series)-limit:]
	}
	return series, nil
}

func (m *MockFetcher) FetchVolumeSeries(ctx context.Context, symbol string, tf model.Timeframe, limit int) (model.VolumeSeries, error) {
	candles, err := m.FetchCandles(ctx, symbol, tf, limit)
	if err != nil {
		return model.VolumeSeries{}, err
	}
	return VolumeFromCandles(symbol, candles, limit), nil
}

// mockPoint is the synthetic close and volume of the x-th 15m candle of the
// history: a slow drift up with a small oscillation on top.
func mockPoint(base float64, x int) (price, volume float64) {
	f := float64(x)
	price = base*(1+0.0001*f) + base*0.004*math.Sin(f*0.7)
	volume = 1000 + 300*math.Sin(f*0.3) + 100*math.Cos(f*1.1)
	return price, volume
}

// generateMockCandles returns the last count 15m candles of the history ending
// at end. Candles depend only on their open time, so windows of any length
// overlap exactly.
func generateMockCandles(base float64, count int, end time.Time) []model.Candle {
	count = min(count, mockHistory)
	step := model.M15.Millis()
	first := mockHistory - count
	start := end.UnixMilli() - int64(count)*step
	candles := make([]model.Candle, count)
	for i := range candles {
		x := first + i
		open, _ := mockPoint(base, x-1)
		closePrice, vol := mockPoint(base, x)
		candles[i] = model.Candle{
			Time:   start + int64(i)*step,
			Open:   open,
			High:   math.Max(open, closePrice) + base*0.001,
			Low:    math.Min(open, closePrice) - base*0.001,
			Close:  closePrice,
			Volume: vol,
		}
	}
	return candles
}

// Collector fetches everything one analysis needs for a symbol.
type Collector struct {
	Fetcher     Fetcher
	CandleLimit int
	VolumeLimit int
}

// NewCollector creates a new Collector. Non-positive limits use the defaults.
func NewCollector(fetcher Fetcher, candleLimit, volumeLimit int) *Collector {
	if candleLimit <= 0 {
		candleLimit = DefaultCandleLimit
	}
	if volumeLimit <= 0 {
		volumeLimit = DefaultVolumeLimit
	}
	return &Collector{Fetcher: fetcher, CandleLimit: candleLimit, VolumeLimit: volumeLimit}
}

// Collect fetches 15m, 1h and 4h candles and the 1h volume series concurrently.
// The first failure cancels the remaining requests.
func (c *Collector) Collect(ctx context.Context, symbol string) (*model.MarketSnapshot, error) {
	snap := &model.MarketSnapshot{Symbol: symbol}
	g, gctx := errgroup.WithContext(ctx)

	targets := map[model.Timeframe]*[]model.Candle{
		model.M15: &snap.Candles15m,
		model.H1:  &snap.Candles1H,
		model.H4:  &snap.Candles4H,
	}
	for tf, dst := range targets {
		tf, dst := tf, dst
		g.Go(func() error {
			candles, err := c.Fetcher.FetchCandles(gctx, symbol, tf, c.CandleLimit)
			if err != nil {
				return fmt.Errorf("fetch %s candles: %w", tf, err)
			}
			*dst = candles
			return nil
		})
	}
	g.Go(func() error {
		vol, err := c.Fetcher.FetchVolumeSeries(gctx, symbol, model.H1, c.VolumeLimit)
		if err != nil {
			return fmt.Errorf("fetch volume series: %w", err)
		}
		snap.Volume = vol
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.FetchedAt = time.Now().UnixMilli()

	log.Debug().Str("component", "collector").Str("symbol", symbol).Str("source", c.Fetcher.Name()).
		Int("candles_15m", len(snap.Candles15m)).Int("candles_1h", len(snap.Candles1H)).
		Int("candles_4h", len(snap.Candles4H)).Msg("snapshot collected")
	return snap, nil
}
