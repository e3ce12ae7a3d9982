package recorder

import (
	"time"

	"CoinScreener/internal/model"
)

// ScanRun summarises one screening pass over the watchlist.
type ScanRun struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Trigger       string // "cron", "command" or "startup"
	Symbols       int
	Analyzed      int
	Failed        int
	Qualified     int
	MinConfidence int
}

// HistoryEntry is one stored analysis of a symbol.
type HistoryEntry struct {
	RunID           string
	Timestamp       int64
	Price           float64
	ConfidenceScore int
	TrendDirection  model.TrendDirection
	RiskRewardRatio float64
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordScan(run *ScanRun) error
	RecordAnalysis(runID string, res *model.AnalysisResult) error
	History(symbol string, limit int) ([]HistoryEntry, error)
	Close() error
}
