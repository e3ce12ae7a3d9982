package model

// Unavailable marks a distance that could not be computed because its reference level is missing.
const Unavailable = -1.0

// TrendDirection summarises EMA ordering across timeframes.
type TrendDirection string

const (
	Uptrend   TrendDirection = "UPTREND"
	Downtrend TrendDirection = "DOWNTREND"
	Sideways  TrendDirection = "SIDEWAYS"
)

type EmaAlignment struct {
	Ema20Above50   bool `json:"ema20_above_50"`
	Ema50Above100  bool `json:"ema50_above_100"`
	Ema100Above200 bool `json:"ema100_above_200"`
	AllAligned     bool `json:"all_aligned"`
}

type TrendAnalysis struct {
	EmaAlignment   EmaAlignment   `json:"ema_alignment"`
	GoldenCross15m bool           `json:"golden_cross_15m"`
	GoldenCross1H  bool           `json:"golden_cross_1h"`
	GoldenCross4H  bool           `json:"golden_cross_4h"`
	TrendDirection TrendDirection `json:"trend_direction"`
}

// EmaProximity holds percentage distances from price to the 1h EMAs.
type EmaProximity struct {
	ToEma20  float64 `json:"to_ema20"`
	ToEma50  float64 `json:"to_ema50"`
	ToEma100 float64 `json:"to_ema100"`
	InZone   bool    `json:"in_zone"`
}

// FibRetracement holds percentage distances from price to the key retracement levels.
type FibRetracement struct {
	To0382 float64 `json:"to_0382"`
	To05   float64 `json:"to_05"`
	To0618 float64 `json:"to_0618"`
	InZone bool    `json:"in_zone"`
}

type PullbackAnalysis struct {
	EmaProximity   EmaProximity   `json:"ema_proximity"`
	FibRetracement FibRetracement `json:"fib_retracement"`
	Levels         PullbackLevels `json:"levels"`
	InPullbackZone bool           `json:"in_pullback_zone"`
}

type RsiConditions struct {
	Rsi15m              float64 `json:"rsi_15m"`
	Rsi1H               float64 `json:"rsi_1h"`
	Rsi15mAbove50       bool    `json:"rsi_15m_above_50"`
	Rsi1HBetween40and60 bool    `json:"rsi_1h_between_40_and_60"`
	Confirmed           bool    `json:"confirmed"`
}

type MacdConditions struct {
	MacdLine            float64 `json:"macd_line"`
	SignalLine          float64 `json:"signal_line"`
	Histogram           float64 `json:"histogram"`
	MacdAboveSignal     bool    `json:"macd_above_signal"`
	HistogramIncreasing bool    `json:"histogram_increasing"`
	Confirmed           bool    `json:"confirmed"`
}

type MomentumAnalysis struct {
	RsiConditions        RsiConditions  `json:"rsi_conditions"`
	MacdConditions       MacdConditions `json:"macd_conditions"`
	MomentumConfirmation bool           `json:"momentum_confirmation"`
}

type VolumeAnalysis struct {
	CurrentVolume           float64 `json:"current_volume"`
	AverageVolume           float64 `json:"average_volume"`
	VolumeSpike             bool    `json:"volume_spike"`
	VolumeTrendConfirmation bool    `json:"volume_trend_confirmation"`
	VolumeConfirmation      bool    `json:"volume_confirmation"`
}

type StopLossLevels struct {
	Primary      float64 `json:"primary"`
	Secondary    float64 `json:"secondary"`
	Aggressive   float64 `json:"aggressive"`
	Conservative float64 `json:"conservative"`
}

type TakeProfitLevels struct {
	Primary      float64 `json:"primary"`
	Secondary    float64 `json:"secondary"`
	Aggressive   float64 `json:"aggressive"`
	Conservative float64 `json:"conservative"`
}

type RiskAssessment struct {
	StopLoss        StopLossLevels   `json:"stop_loss"`
	TakeProfit      TakeProfitLevels `json:"take_profit"`
	RiskRewardRatio float64          `json:"risk_reward_ratio"`
	ATR             float64          `json:"atr"`
	Volatility      float64          `json:"volatility"`
}

// AnalysisResult is the terminal output of one analysis pass.
type AnalysisResult struct {
	Symbol          string              `json:"symbol"`
	Price           float64             `json:"price"`
	Trend           TrendAnalysis       `json:"trend_analysis"`
	Pullback        PullbackAnalysis    `json:"pullback_analysis"`
	Momentum        MomentumAnalysis    `json:"momentum_analysis"`
	Volume          VolumeAnalysis      `json:"volume_analysis"`
	Signals         []PriceActionSignal `json:"price_action_signals"`
	Risk            RiskAssessment      `json:"risk_assessment"`
	ConfidenceScore int                 `json:"confidence_score"`
	Timestamp       int64               `json:"timestamp"`
}
