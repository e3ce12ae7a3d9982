package model

// Indicator names one value of an indicator snapshot.
type Indicator int

const (
	EMA20 Indicator = iota
	EMA50
	EMA100
	EMA200
	RSI14
	MACDInd
	SMA50
	ATR14
)

func (i Indicator) String() string {
	switch i {
	case EMA20:
		return "ema20"
	case EMA50:
		return "ema50"
	case EMA100:
		return "ema100"
	case EMA200:
		return "ema200"
	case RSI14:
		return "rsi14"
	case MACDInd:
		return "macd"
	case SMA50:
		return "sma50"
	case ATR14:
		return "atr14"
	default:
		return "unknown"
	}
}

// MarshalText renders the indicator name.
func (i Indicator) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// MACD holds the latest MACD sample. PrevHistogram is the histogram one sample earlier.
// The all-zero value means MACD was not computable.
type MACD struct {
	Line          float64 `json:"line"`
	Signal        float64 `json:"signal"`
	Histogram     float64 `json:"histogram"`
	PrevHistogram float64 `json:"prev_histogram"`
}

// IsZero reports whether m is the "MACD unavailable" sentinel.
func (m MACD) IsZero() bool {
	return m == MACD{}
}

// Indicators is the per-timeframe snapshot. Values whose window was too short
// are left at zero and listed in Missing.
type Indicators struct {
	EMA20   float64     `json:"ema20"`
	EMA50   float64     `json:"ema50"`
	EMA100  float64     `json:"ema100"`
	EMA200  float64     `json:"ema200"`
	RSI     float64     `json:"rsi"`
	MACD    MACD        `json:"macd"`
	SMA50   float64     `json:"sma50"`
	ATR     float64     `json:"atr"`
	Missing []Indicator `json:"missing,omitempty"`
}

// Has reports whether the indicator was computed.
func (ind Indicators) Has(i Indicator) bool {
	for _, m := range ind.Missing {
		if m == i {
			return false
		}
	}
	return true
}

// PullbackLevels are Fibonacci retracement prices from the window high (Level0)
// down to the window low (Level1).
type PullbackLevels struct {
	Level0    float64 `json:"level_0"`
	Level0236 float64 `json:"level_0236"`
	Level0382 float64 `json:"level_0382"`
	Level05   float64 `json:"level_05"`
	Level0618 float64 `json:"level_0618"`
	Level0786 float64 `json:"level_0786"`
	Level1    float64 `json:"level_1"`
}

// Levels returns the seven levels in order from Level0 to Level1.
func (p PullbackLevels) Levels() []float64 {
	return []float64{p.Level0, p.Level0236, p.Level0382, p.Level05, p.Level0618, p.Level0786, p.Level1}
}
