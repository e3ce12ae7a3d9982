package calculator

// CalculateRSI computes the Wilder-smoothed RSI over the given period.
// Requires len(values) > period, otherwise returns nil. The first point uses the
// plain mean of the first period gains and losses; later points use Wilder smoothing.
// A zero average loss yields 100.
func CalculateRSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) <= period {
		return nil
	}
	out := make([]float64, len(values)-period)

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(values[i] - values[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[0] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		gain, loss := split(values[i] - values[i-1])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i-period] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
