package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"CoinScreener/internal/calculator"
	"CoinScreener/internal/model"
	"CoinScreener/internal/pattern"
	"CoinScreener/internal/risk"
)

func newTestEngine(now time.Time) *Engine {
	return NewEngine(calculator.New(), pattern.New(), risk.New(), WithClock(func() time.Time { return now }))
}

// zigzag builds an uptrend that rises 1.2 and falls 1.0 on alternate steps.
func zigzag(n int, start float64, step int64) []model.Candle {
	out := make([]model.Candle, n)
	prev := start
	for i := range out {
		c := prev
		switch {
		case i == 0:
		case i%2 == 1:
			c = prev + 1.2
		default:
			c = prev - 1.0
		}
		out[i] = model.Candle{
			Open:   prev,
			High:   math.Max(prev, c) + 0.1,
			Low:    math.Min(prev, c) - 0.1,
			Close:  c,
			Volume: 100,
			Time:   int64(i+1) * step,
		}
		prev = c
	}
	return out
}

func appendCandle(candles []model.Candle, change float64) []model.Candle {
	last := candles[len(candles)-1]
	c := last.Close + change
	return append(candles, model.Candle{
		Open:   last.Close,
		High:   math.Max(last.Close, c) + 0.1,
		Low:    math.Min(last.Close, c) - 0.1,
		Close:  c,
		Volume: 100,
		Time:   last.Time + (last.Time - candles[len(candles)-2].Time),
	})
}

func spikeVolume() model.VolumeSeries {
	vol := model.VolumeSeries{Symbol: "BTCUSDT"}
	for i := 0; i < 20; i++ {
		v := 100.0
		if i == 19 {
			v = 1000
		}
		vol.Values = append(vol.Values, v)
		vol.Times = append(vol.Times, int64(i+1)*3_600_000)
	}
	return vol
}

func TestAnalyze_Uptrend(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c15m := appendCandle(zigzag(249, 100, 900_000), 6)
	c1h := zigzag(250, 100, 3_600_000)
	c4h := zigzag(250, 100, 14_400_000)

	res, err := newTestEngine(now).Analyze("BTCUSDT", c15m, c1h, c4h, spikeVolume())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Trend.TrendDirection != model.Uptrend {
		t.Errorf("expected UPTREND, got %s", res.Trend.TrendDirection)
	}
	if !res.Trend.EmaAlignment.AllAligned {
		t.Errorf("expected full EMA alignment, got %+v", res.Trend.EmaAlignment)
	}
	if !res.Momentum.MomentumConfirmation {
		t.Errorf("expected momentum confirmation, got %+v", res.Momentum)
	}
	if !res.Volume.VolumeSpike {
		t.Errorf("expected volume spike, got %+v", res.Volume)
	}
	if res.ConfidenceScore < 65 || res.ConfidenceScore > 100 {
		t.Errorf("expected confidence in [65, 100], got %d", res.ConfidenceScore)
	}
	if res.Price != c15m[len(c15m)-1].Close {
		t.Errorf("expected price from the last 15m close, got %v", res.Price)
	}
	if res.Timestamp != now.UnixMilli() {
		t.Errorf("expected timestamp %d, got %d", now.UnixMilli(), res.Timestamp)
	}
	if res.Risk.StopLoss.Primary >= res.Price || res.Risk.TakeProfit.Primary <= res.Price {
		t.Errorf("stop and target should bracket the price: %+v", res.Risk)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c15m := appendCandle(zigzag(249, 100, 900_000), 6)
	c1h := zigzag(250, 100, 3_600_000)
	c4h := zigzag(250, 100, 14_400_000)
	e := newTestEngine(now)

	a, errA := e.Analyze("ETHUSDT", c15m, c1h, c4h, spikeVolume())
	b, errB := e.Analyze("ETHUSDT", c15m, c1h, c4h, spikeVolume())
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v, %v", errA, errB)
	}
	if a.ConfidenceScore != b.ConfidenceScore || a.Risk != b.Risk || a.Pullback != b.Pullback {
		t.Error("identical input should give identical output")
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	c1h := zigzag(250, 100, 3_600_000)
	short := zigzag(10, 100, 14_400_000)

	res, err := newTestEngine(time.Now()).Analyze("SOLUSDT", c1h, c1h, short, spikeVolume())
	if res != nil {
		t.Error("expected no partial result")
	}
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	var ide *model.InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected *InsufficientDataError, got %T", err)
	}
	if ide.Symbol != "SOLUSDT" || ide.Timeframe != model.H4 || ide.Indicator != "ema20" {
		t.Errorf("unexpected error detail: %+v", ide)
	}
}

func TestAnalyze_ShortSeriesStillScores(t *testing.T) {
	c := zigzag(40, 100, 900_000)
	res, err := newTestEngine(time.Now()).Analyze("XRPUSDT", c, c, c, model.VolumeSeries{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Trend.EmaAlignment.AllAligned {
		t.Error("alignment needs EMA200 on 4h and must not hold")
	}
	if res.Pullback.EmaProximity.ToEma100 != model.Unavailable {
		t.Errorf("expected unavailable EMA100 distance, got %v", res.Pullback.EmaProximity.ToEma100)
	}
	if res.ConfidenceScore < 0 || res.ConfidenceScore > 100 {
		t.Errorf("score out of range: %d", res.ConfidenceScore)
	}
}

func TestConfidenceScore(t *testing.T) {
	sig := func(k model.SignalKind, tf model.Timeframe) model.PriceActionSignal {
		return model.PriceActionSignal{Kind: k, Timeframe: tf}
	}
	aligned := model.TrendAnalysis{EmaAlignment: model.EmaAlignment{AllAligned: true}}
	zone := model.PullbackAnalysis{InPullbackZone: true}
	mom := model.MomentumAnalysis{MomentumConfirmation: true}
	vol := model.VolumeAnalysis{VolumeConfirmation: true}

	tests := []struct {
		name     string
		trend    model.TrendAnalysis
		pullback model.PullbackAnalysis
		momentum model.MomentumAnalysis
		volume   model.VolumeAnalysis
		signals  []model.PriceActionSignal
		want     int
	}{
		{"nothing", model.TrendAnalysis{}, model.PullbackAnalysis{}, model.MomentumAnalysis{}, model.VolumeAnalysis{}, nil, 0},
		{"trend only", aligned, model.PullbackAnalysis{}, model.MomentumAnalysis{}, model.VolumeAnalysis{}, nil, 25},
		{"trend momentum volume", aligned, model.PullbackAnalysis{}, mom, vol, nil, 65},
		{"everything", aligned, zone, mom, vol, []model.PriceActionSignal{
			sig(model.Hammer, model.M15), sig(model.Hammer, model.H1), sig(model.MorningStar, model.M15), sig(model.BullishEngulfing, model.H1),
		}, 100},
		{"duplicates count once", model.TrendAnalysis{}, model.PullbackAnalysis{}, model.MomentumAnalysis{}, model.VolumeAnalysis{}, []model.PriceActionSignal{
			sig(model.Hammer, model.M15), sig(model.Hammer, model.M15),
		}, 5},
		{"signals capped", model.TrendAnalysis{}, zone, model.MomentumAnalysis{}, model.VolumeAnalysis{}, []model.PriceActionSignal{
			sig(model.Hammer, model.M15), sig(model.Hammer, model.H1), sig(model.MorningStar, model.M15), sig(model.BreakoutAboveEMA50, model.H1),
		}, 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConfidenceScore(tt.trend, tt.pullback, tt.momentum, tt.volume, tt.signals); got != tt.want {
				t.Errorf("ConfidenceScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTrendDirection(t *testing.T) {
	bull := model.Indicators{EMA20: 110, EMA50: 100, EMA200: 90}
	bear := model.Indicators{EMA20: 90, EMA50: 100, EMA200: 120}
	noEMA := model.Indicators{Missing: []model.Indicator{model.EMA20, model.EMA50, model.EMA100, model.EMA200}}

	tests := []struct {
		name                 string
		price                float64
		ind15m, ind1h, ind4h model.Indicators
		want                 model.TrendDirection
	}{
		{"all bullish", 105, bull, bull, bull, model.Uptrend},
		{"two against one", 105, bull, bear, bull, model.Uptrend},
		{"all bearish", 105, bear, bear, bear, model.Downtrend},
		{"split with missing 4h", 105, bull, bear, noEMA, model.Sideways},
		{"missing 15m, two bullish", 105, noEMA, bull, bull, model.Uptrend},
		{"single vote", 105, noEMA, noEMA, bull, model.Sideways},
		{"price on ema200 abstains", 90, bull, bear, bull, model.Sideways},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trendDirection(tt.price, tt.ind15m, tt.ind1h, tt.ind4h); got != tt.want {
				t.Errorf("trendDirection() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAnalyzeMomentum(t *testing.T) {
	rising := model.MACD{Line: 1, Signal: 0.5, Histogram: 0.5, PrevHistogram: 0.2}
	tests := []struct {
		name          string
		rsi15m, rsi1h float64
		macd          model.MACD
		wantRSI       bool
		wantMACD      bool
	}{
		{"both confirmed", 55, 50, rising, true, true},
		{"1h rsi on lower bound", 55, 40, rising, true, true},
		{"1h rsi on upper bound", 55, 60, rising, true, true},
		{"1h rsi too hot", 55, 60.1, rising, false, true},
		{"15m rsi at 50", 50, 50, rising, false, true},
		{"histogram falling", 55, 50, model.MACD{Line: 1, Signal: 0.5, Histogram: 0.5, PrevHistogram: 0.6}, true, false},
		{"line below signal", 55, 50, model.MACD{Line: 0.4, Signal: 0.5, Histogram: -0.1, PrevHistogram: -0.3}, true, false},
		{"sentinel", 55, 50, model.MACD{}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzeMomentum(model.Indicators{RSI: tt.rsi15m, MACD: tt.macd}, model.Indicators{RSI: tt.rsi1h})
			if got.RsiConditions.Confirmed != tt.wantRSI {
				t.Errorf("rsi confirmed = %v, want %v", got.RsiConditions.Confirmed, tt.wantRSI)
			}
			if got.MacdConditions.Confirmed != tt.wantMACD {
				t.Errorf("macd confirmed = %v, want %v", got.MacdConditions.Confirmed, tt.wantMACD)
			}
			if got.MomentumConfirmation != (tt.wantRSI && tt.wantMACD) {
				t.Errorf("momentum confirmation = %v", got.MomentumConfirmation)
			}
		})
	}
}

func TestAnalyzeVolume(t *testing.T) {
	rising := []model.Candle{{Open: 10, High: 11, Low: 9, Close: 10}, {Open: 10, High: 12, Low: 9.5, Close: 11}}
	falling := []model.Candle{{Open: 10, High: 11, Low: 9, Close: 11}, {Open: 11, High: 11, Low: 9.5, Close: 10}}
	flat20 := func(last float64) []float64 {
		v := make([]float64, 20)
		for i := range v {
			v[i] = 100
		}
		v[19] = last
		return v
	}

	tests := []struct {
		name      string
		values    []float64
		c1h       []model.Candle
		wantSpike bool
		wantTrend bool
	}{
		{"spike", flat20(1000), falling, true, false},
		{"no spike at average", flat20(100), falling, false, false},
		{"rising price and volume", flat20(120), rising, false, true},
		{"too few values for a spike", []float64{100, 100, 1000}, falling, false, false},
		{"short series trend", []float64{100, 100, 1000}, rising, false, true},
		{"empty", nil, rising, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := analyzeVolume(model.VolumeSeries{Values: tt.values}, tt.c1h)
			if got.VolumeSpike != tt.wantSpike {
				t.Errorf("spike = %v, want %v", got.VolumeSpike, tt.wantSpike)
			}
			if got.VolumeTrendConfirmation != tt.wantTrend {
				t.Errorf("trend confirmation = %v, want %v", got.VolumeTrendConfirmation, tt.wantTrend)
			}
			if got.VolumeConfirmation != (tt.wantSpike || tt.wantTrend) {
				t.Errorf("confirmation = %v", got.VolumeConfirmation)
			}
		})
	}
}

func TestAnalyzePullback(t *testing.T) {
	c1h := []model.Candle{
		{Open: 100, High: 110, Low: 95, Close: 105},
		{Open: 105, High: 120, Low: 100, Close: 118},
		{Open: 118, High: 119, Low: 80, Close: 90},
	}

	onEMA, err := analyzePullback(101, c1h, model.Indicators{EMA20: 100, EMA50: 150, EMA100: 200})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !onEMA.EmaProximity.InZone || !onEMA.InPullbackZone {
		t.Errorf("expected EMA proximity zone, got %+v", onEMA.EmaProximity)
	}

	// 50% level of 120..80 is 100.
	onFib, err := analyzePullback(100.5, c1h, model.Indicators{Missing: []model.Indicator{model.EMA20, model.EMA50, model.EMA100}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if onFib.EmaProximity.InZone {
		t.Error("missing EMAs must not count as in zone")
	}
	if onFib.EmaProximity.ToEma20 != model.Unavailable {
		t.Errorf("expected unavailable distance, got %v", onFib.EmaProximity.ToEma20)
	}
	if !onFib.FibRetracement.InZone || !onFib.InPullbackZone {
		t.Errorf("expected fib zone, got %+v", onFib.FibRetracement)
	}

	far, _ := analyzePullback(150, c1h, model.Indicators{EMA20: 100, EMA50: 100, EMA100: 100})
	if far.InPullbackZone {
		t.Errorf("expected no pullback zone, got %+v", far)
	}
}
