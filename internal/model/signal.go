package model

// SignalKind identifies a candlestick pattern.
type SignalKind int

const (
	BullishEngulfing SignalKind = iota
	MorningStar
	Hammer
	BreakoutAboveEMA50
)

func (k SignalKind) String() string {
	switch k {
	case BullishEngulfing:
		return "BULLISH_ENGULFING"
	case MorningStar:
		return "MORNING_STAR"
	case Hammer:
		return "HAMMER"
	case BreakoutAboveEMA50:
		return "BREAKOUT_ABOVE_EMA50"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the kind name.
func (k SignalKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// PriceActionSignal is a pattern observed on one timeframe.
type PriceActionSignal struct {
	Kind      SignalKind `json:"kind"`
	Timeframe Timeframe  `json:"timeframe"`
}

func (s PriceActionSignal) String() string {
	return s.Kind.String() + "@" + s.Timeframe.String()
}
