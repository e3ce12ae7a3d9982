package calculator

import "CoinScreener/internal/model"

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// CalculateMACDSeries returns the MACD line, signal line and histogram, all
// aligned to the signal line (the last element of each is the latest sample).
// EMA12 and EMA26 are paired by input index. Returns nils when EMA26 has fewer
// than 26 points or the MACD line fewer than 9.
func CalculateMACDSeries(values []float64) (line, signal, hist []float64) {
	ema12 := CalculateEMA(values, macdFast)
	ema26 := CalculateEMA(values, macdSlow)
	if len(ema26) < macdSlow {
		return nil, nil, nil
	}

	// ema12[i] belongs to input index i+11, ema26[j] to j+25.
	offset := macdSlow - macdFast
	full := make([]float64, len(ema26))
	for j := range ema26 {
		full[j] = ema12[j+offset] - ema26[j]
	}

	signal = CalculateEMA(full, macdSignal)
	if len(signal) == 0 {
		return nil, nil, nil
	}
	line = full[len(full)-len(signal):]
	hist = make([]float64, len(signal))
	for i := range signal {
		hist[i] = line[i] - signal[i]
	}
	return line, signal, hist
}

// CalculateMACD returns the latest MACD sample, or the zero sentinel when the
// series is too short.
func CalculateMACD(values []float64) model.MACD {
	line, signal, hist := CalculateMACDSeries(values)
	n := len(hist)
	if n == 0 {
		return model.MACD{}
	}
	m := model.MACD{
		Line:      line[n-1],
		Signal:    signal[n-1],
		Histogram: hist[n-1],
	}
	// with a single sample the histogram cannot be rising
	m.PrevHistogram = m.Histogram
	if n > 1 {
		m.PrevHistogram = hist[n-2]
	}
	return m
}
