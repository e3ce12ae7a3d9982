package model

import (
	"fmt"
	"math"
	"strings"
)

// Timeframe is the bucket duration a candle series is sampled at.
type Timeframe int

const (
	M15 Timeframe = iota
	H1
	H4
)

// Timeframes lists the timeframes used by the analysis pipeline, shortest first.
var Timeframes = []Timeframe{M15, H1, H4}

// Interval returns the exchange interval string ("15m", "1h", "4h").
func (tf Timeframe) Interval() string {
	switch tf {
	case M15:
		return "15m"
	case H1:
		return "1h"
	case H4:
		return "4h"
	default:
		return "unknown"
	}
}

func (tf Timeframe) String() string { return tf.Interval() }

// Millis returns the bucket length in milliseconds.
func (tf Timeframe) Millis() int64 {
	switch tf {
	case M15:
		return 15 * 60 * 1000
	case H1:
		return 60 * 60 * 1000
	case H4:
		return 4 * 60 * 60 * 1000
	default:
		return 0
	}
}

// MarshalText renders the timeframe as its interval string.
func (tf Timeframe) MarshalText() ([]byte, error) { return []byte(tf.Interval()), nil }

// UnmarshalText parses an interval string.
func (tf *Timeframe) UnmarshalText(b []byte) error {
	v, err := ParseTimeframe(string(b))
	if err != nil {
		return err
	}
	*tf = v
	return nil
}

// ParseTimeframe maps "15m", "1h" or "4h" to a Timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "15m":
		return M15, nil
	case "1h":
		return H1, nil
	case "4h":
		return H4, nil
	default:
		return 0, fmt.Errorf("unknown timeframe %q", s)
	}
}

// Candle is a single OHLCV sample. Time is the bucket open time in epoch milliseconds.
type Candle struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
	Time   int64   `json:"time"`
}

// Valid reports whether low <= min(open,close) <= max(open,close) <= high and volume >= 0.
func (c Candle) Valid() bool {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return c.Low <= math.Min(c.Open, c.Close) &&
		math.Max(c.Open, c.Close) <= c.High &&
		c.Volume >= 0
}

// Bullish reports close > open.
func (c Candle) Bullish() bool { return c.Close > c.Open }

// Bearish reports close < open.
func (c Candle) Bearish() bool { return c.Close < c.Open }

// ValidateSeries checks every candle and that times are strictly increasing.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if !c.Valid() {
			return fmt.Errorf("candle %d at %d is malformed", i, c.Time)
		}
		if i > 0 && c.Time <= candles[i-1].Time {
			return fmt.Errorf("candle %d at %d is not after %d", i, c.Time, candles[i-1].Time)
		}
	}
	return nil
}

// VolumeSeries holds parallel volume values and their bucket times.
type VolumeSeries struct {
	Symbol string    `json:"symbol"`
	Values []float64 `json:"values"`
	Times  []int64   `json:"times"`
}

// MarketSnapshot bundles everything one analysis needs for a symbol.
type MarketSnapshot struct {
	Symbol     string
	Candles15m []Candle
	Candles1H  []Candle
	Candles4H  []Candle
	Volume     VolumeSeries
	FetchedAt  int64
}
