package risk

import (
	"fmt"
	"math"

	"CoinScreener/internal/calculator"
	"CoinScreener/internal/model"
)

// Lookback windows, counted from the newest candle.
const (
	swingLow15mWindow = 10
	swingLow1HWindow  = 5
	swingHigh1HWindow = 20
	volatilityWindow  = 20
)

// Evaluator derives stop-loss and take-profit tiers for a long entry at the
// latest 15m close. ATR is always the 15m ATR14.
type Evaluator struct{}

// New creates an Evaluator.
func New() *Evaluator { return &Evaluator{} }

// Evaluate builds the risk assessment. It fails only when a candle window is empty.
func (e *Evaluator) Evaluate(c15m, c1h []model.Candle, ind15m, ind1h model.Indicators) (model.RiskAssessment, error) {
	if len(c15m) == 0 {
		return model.RiskAssessment{}, fmt.Errorf("15m candles: %w", calculator.ErrEmptyWindow)
	}
	price := c15m[len(c15m)-1].Close
	atr := ind15m.ATR

	sl, err := stopLoss(price, atr, c15m, c1h, ind15m, ind1h)
	if err != nil {
		return model.RiskAssessment{}, err
	}
	tp, err := takeProfit(price, atr, c1h)
	if err != nil {
		return model.RiskAssessment{}, err
	}

	return model.RiskAssessment{
		StopLoss:        sl,
		TakeProfit:      tp,
		RiskRewardRatio: RewardRatio(price, sl.Primary, tp.Primary),
		ATR:             atr,
		Volatility:      calculator.Volatility(c15m, volatilityWindow),
	}, nil
}

func stopLoss(price, atr float64, c15m, c1h []model.Candle, ind15m, ind1h model.Indicators) (model.StopLossLevels, error) {
	low15m, err := calculator.LowestLow(c15m, swingLow15mWindow)
	if err != nil {
		return model.StopLossLevels{}, fmt.Errorf("15m swing low: %w", err)
	}
	low1h, err := calculator.LowestLow(c1h, swingLow1HWindow)
	if err != nil {
		return model.StopLossLevels{}, fmt.Errorf("1h swing low: %w", err)
	}

	primary := math.Min(low15m*0.995, price-1.5*atr)
	if ind15m.Has(model.EMA50) {
		primary = math.Min(primary, ind15m.EMA50*0.99)
	}
	secondary := math.Min(low1h*0.99, price-2*atr)
	if ind1h.Has(model.EMA50) {
		secondary = math.Min(secondary, ind1h.EMA50*0.985)
	}

	return model.StopLossLevels{
		Primary:      primary,
		Secondary:    secondary,
		Aggressive:   price - atr,
		Conservative: price - 2*atr,
	}, nil
}

func takeProfit(price, atr float64, c1h []model.Candle) (model.TakeProfitLevels, error) {
	high1h, err := calculator.HighestHigh(c1h, swingHigh1HWindow)
	if err != nil {
		return model.TakeProfitLevels{}, fmt.Errorf("1h swing high: %w", err)
	}
	return model.TakeProfitLevels{
		Primary:      max(price+3*atr, price*1.02, high1h*0.995),
		Secondary:    max(price+5*atr, price*1.05, high1h*1.02),
		Aggressive:   price + 4*atr,
		Conservative: price + 2*atr,
	}, nil
}

// RewardRatio is (target-price)/(price-stop). It is 0 when the stop is not
// positive or sits at or above the price.
func RewardRatio(price, stop, target float64) float64 {
	riskLeg := price - stop
	if stop <= 0 || riskLeg <= 0 {
		return 0
	}
	return (target - price) / riskLeg
}
