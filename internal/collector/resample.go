package collector

import "CoinScreener/internal/model"

// Resample merges candles into buckets of bucketMs milliseconds aligned to the
// epoch. Open comes from the first candle of a bucket, close from the last, and
// volume is summed. Input must be sorted by time.
func Resample(candles []model.Candle, bucketMs int64) []model.Candle {
	if len(candles) == 0 || bucketMs <= 0 {
		return nil
	}
	var out []model.Candle
	var cur model.Candle
	var curKey int64
	started := false

	for _, c := range candles {
		key := c.Time - c.Time%bucketMs
		if !started || key != curKey {
			if started {
				out = append(out, cur)
			}
			cur = model.Candle{Time: key, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close, Volume: c.Volume}
			curKey = key
			started = true
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	return append(out, cur)
}
