package strategy

import (
	"time"

	"golang.org/x/sync/errgroup"

	"CoinScreener/internal/calculator"
	"CoinScreener/internal/model"
	"CoinScreener/internal/pattern"
	"CoinScreener/internal/risk"
)

// Score weights. They sum to 100 with the signal cap applied.
const (
	WeightAllAligned = 25
	WeightPullback   = 20
	WeightMomentum   = 25
	WeightVolume     = 15
	WeightSignal     = 5
	MaxSignalsScored = 3
)

// Engine runs the multi-timeframe analysis for one symbol. It holds no mutable
// state and may be shared by concurrent workers.
type Engine struct {
	calc     *calculator.Calculator
	detector *pattern.Detector
	risk     *risk.Evaluator
	now      func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for the result timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires the engine to its collaborators.
func NewEngine(calc *calculator.Calculator, det *pattern.Detector, ev *risk.Evaluator, opts ...Option) *Engine {
	e := &Engine{calc: calc, detector: det, risk: ev, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze computes the full AnalysisResult. Candle series are ordered oldest to
// newest and are not modified. It fails with *model.InsufficientDataError when
// any timeframe is shorter than the base indicator windows.
func (e *Engine) Analyze(symbol string, c15m, c1h, c4h []model.Candle, vol model.VolumeSeries) (*model.AnalysisResult, error) {
	for _, s := range []struct {
		tf      model.Timeframe
		candles []model.Candle
	}{{model.M15, c15m}, {model.H1, c1h}, {model.H4, c4h}} {
		if err := e.calc.RequireBase(symbol, s.tf, s.candles); err != nil {
			return nil, err
		}
	}

	// Step a: per-timeframe indicator snapshots
	var ind15m, ind1h, ind4h model.Indicators
	var g errgroup.Group
	g.Go(func() error { ind15m = e.calc.CalculateAll(c15m); return nil })
	g.Go(func() error { ind1h = e.calc.CalculateAll(c1h); return nil })
	g.Go(func() error { ind4h = e.calc.CalculateAll(c4h); return nil })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	price := c15m[len(c15m)-1].Close

	// Step b: sub-analyses
	trend := analyzeTrend(e.calc, price, ind15m, ind1h, ind4h)
	pullback, err := analyzePullback(price, c1h, ind1h)
	if err != nil {
		return nil, err
	}
	momentum := analyzeMomentum(ind15m, ind1h)
	volume := analyzeVolume(vol, c1h)

	// Step c: patterns and risk
	signals := e.detector.DetectSignals(c15m, c1h, ind15m, ind1h)
	riskAssessment, err := e.risk.Evaluate(c15m, c1h, ind15m, ind1h)
	if err != nil {
		return nil, err
	}

	// Step d: score
	score := ConfidenceScore(trend, pullback, momentum, volume, signals)

	return &model.AnalysisResult{
		Symbol:          symbol,
		Price:           price,
		Trend:           trend,
		Pullback:        pullback,
		Momentum:        momentum,
		Volume:          volume,
		Signals:         signals,
		Risk:            riskAssessment,
		ConfidenceScore: score,
		Timestamp:       e.now().UnixMilli(),
	}, nil
}

// ConfidenceScore adds the weight of every satisfied condition plus a fixed
// amount per distinct signal (kind and timeframe), and clamps to [0, 100].
func ConfidenceScore(trend model.TrendAnalysis, pullback model.PullbackAnalysis, momentum model.MomentumAnalysis,
	volume model.VolumeAnalysis, signals []model.PriceActionSignal) int {
	score := 0
	if trend.EmaAlignment.AllAligned {
		score += WeightAllAligned
	}
	if pullback.InPullbackZone {
		score += WeightPullback
	}
	if momentum.MomentumConfirmation {
		score += WeightMomentum
	}
	if volume.VolumeConfirmation {
		score += WeightVolume
	}

	seen := make(map[model.PriceActionSignal]struct{}, len(signals))
	for _, s := range signals {
		seen[s] = struct{}{}
	}
	score += WeightSignal * min(len(seen), MaxSignalsScored)

	return max(0, min(100, score))
}
