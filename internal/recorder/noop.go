package recorder

import "CoinScreener/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ *ScanRun) error                            { return nil }
func (n *NoopRecorder) RecordAnalysis(_ string, _ *model.AnalysisResult) error { return nil }
func (n *NoopRecorder) History(_ string, _ int) ([]HistoryEntry, error)        { return nil, nil }
func (n *NoopRecorder) Close() error                                           { return nil }
