package model

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is matched by every InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError reports a required window longer than the available series.
type InsufficientDataError struct {
	Symbol    string
	Timeframe Timeframe
	Indicator string
	Need      int
	Have      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %s on %s needs %d candles, have %d",
		e.Symbol, e.Indicator, e.Timeframe, e.Need, e.Have)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
