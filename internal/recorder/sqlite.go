package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"CoinScreener/internal/model"
)

// SQLiteRecorder persists scan runs and analysis results to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the screener writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("component", "recorder").Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id             TEXT PRIMARY KEY,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER NOT NULL,
			trigger_source TEXT,
			symbols        INTEGER,
			analyzed       INTEGER,
			failed         INTEGER,
			qualified      INTEGER,
			min_confidence INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_started ON scan_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS analysis_results (
			id                    INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id                TEXT,
			timestamp             INTEGER NOT NULL,
			symbol                TEXT NOT NULL,
			price                 REAL,
			confidence_score      INTEGER,
			trend_direction       TEXT,
			all_aligned           INTEGER,
			in_pullback_zone      INTEGER,
			momentum_confirmation INTEGER,
			volume_confirmation   INTEGER,
			signals               TEXT,
			stop_loss             REAL,
			take_profit           REAL,
			risk_reward           REAL,
			atr                   REAL,
			volatility            REAL,
			payload               TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_symbol_ts ON analysis_results(symbol, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_run ON analysis_results(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordScan(run *ScanRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT OR REPLACE INTO scan_runs
		(id, started_at, finished_at, trigger_source, symbols, analyzed, failed, qualified, min_confidence)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.Trigger,
		run.Symbols, run.Analyzed, run.Failed, run.Qualified, run.MinConfidence,
	)
	return err
}

func (r *SQLiteRecorder) RecordAnalysis(runID string, res *model.AnalysisResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	signals := make([]string, len(res.Signals))
	for i, s := range res.Signals {
		signals[i] = s.String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`INSERT INTO analysis_results
		(run_id, timestamp, symbol, price, confidence_score, trend_direction,
		 all_aligned, in_pullback_zone, momentum_confirmation, volume_confirmation,
		 signals, stop_loss, take_profit, risk_reward, atr, volatility, payload)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, res.Timestamp, res.Symbol, res.Price, res.ConfidenceScore, string(res.Trend.TrendDirection),
		res.Trend.EmaAlignment.AllAligned, res.Pullback.InPullbackZone,
		res.Momentum.MomentumConfirmation, res.Volume.VolumeConfirmation,
		strings.Join(signals, ","), res.Risk.StopLoss.Primary, res.Risk.TakeProfit.Primary,
		res.Risk.RiskRewardRatio, res.Risk.ATR, res.Risk.Volatility, string(payload),
	)
	return err
}

// History returns the most recent analyses of a symbol, newest first.
func (r *SQLiteRecorder) History(symbol string, limit int) ([]HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, timestamp, price, confidence_score, trend_direction, risk_reward
		FROM analysis_results WHERE symbol = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		var trend string
		if err := rows.Scan(&h.RunID, &h.Timestamp, &h.Price, &h.ConfidenceScore, &trend, &h.RiskRewardRatio); err != nil {
			return nil, err
		}
		h.TrendDirection = model.TrendDirection(trend)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Str("component", "recorder").Msg("closing sqlite recorder")
	return r.db.Close()
}
