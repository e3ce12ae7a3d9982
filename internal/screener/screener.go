package screener

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"CoinScreener/internal/collector"
	"CoinScreener/internal/logger"
	"CoinScreener/internal/metrics"
	"CoinScreener/internal/model"
	"CoinScreener/internal/notifier"
	"CoinScreener/internal/recorder"
	"CoinScreener/internal/watchlist"
)

// Scan triggers.
const (
	TriggerCron    = "cron"
	TriggerCommand = "command"
	TriggerStartup = "startup"
)

const sendRetries = 3

// ErrScanInProgress is returned when a scan is requested while another runs.
var ErrScanInProgress = errors.New("scan already in progress")

// Analyzer turns one market snapshot into an analysis result.
type Analyzer interface {
	Analyze(symbol string, c15m, c1h, c4h []model.Candle, vol model.VolumeSeries) (*model.AnalysisResult, error)
}

// Notifier delivers formatted reports.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options tunes a Screener. Zero Workers and TopN fall back to the defaults;
// MinConfidence does only when negative, since 0 means report everything.
type Options struct {
	Workers       int
	MinConfidence int
	TopN          int
}

// Report is the outcome of one scan.
type Report struct {
	Run       recorder.ScanRun
	Qualified []*model.AnalysisResult
}

// Top returns at most n qualified results, best first.
func (r *Report) Top(n int) []*model.AnalysisResult {
	if n <= 0 || n >= len(r.Qualified) {
		return r.Qualified
	}
	return r.Qualified[:n]
}

// Screener periodically analyses every watchlist symbol and reports the best setups.
type Screener struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Engine    Analyzer
	Watchlist *watchlist.Manager
	Recorder  recorder.Recorder
	Notifier  Notifier // nil disables notifications

	opts    Options
	ctx     context.Context
	running atomic.Bool
	log     zerolog.Logger

	mu   sync.RWMutex
	last *Report
}

// New creates a Screener. n may be nil.
func New(col *collector.Collector, engine Analyzer, wl *watchlist.Manager, rec recorder.Recorder, n Notifier, opts Options) *Screener {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.MinConfidence < 0 {
		opts.MinConfidence = 70
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Screener{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Engine:    engine,
		Watchlist: wl,
		Recorder:  rec,
		Notifier:  n,
		opts:      opts,
		ctx:       context.Background(),
		log:       logger.Component("screener"),
	}
}

// Register schedules the periodic scan.
func (s *Screener) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.scheduledScan); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler. Scheduled scans run under ctx.
func (s *Screener) Start(ctx context.Context) {
	s.ctx = ctx
	s.Cron.Start()
	s.log.Info().Int("workers", s.opts.Workers).Int("min_confidence", s.opts.MinConfidence).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running scheduled scan.
func (s *Screener) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes a scan immediately and notifies the result.
func (s *Screener) RunNow(ctx context.Context, trigger string) (*Report, error) {
	report, err := s.Scan(ctx, trigger)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notifier.FormatScanReport(&report.Run, report.Top(s.opts.TopN)))
	return report, nil
}

func (s *Screener) scheduledScan() {
	report, err := s.Scan(s.ctx, TriggerCron)
	if err != nil {
		s.log.Warn().Err(err).Msg("scheduled scan skipped")
		return
	}
	if len(report.Qualified) > 0 {
		s.notify(s.ctx, notifier.FormatScanReport(&report.Run, report.Top(s.opts.TopN)))
	}
}

// Scan analyses every watchlist symbol with a bounded worker pool. Per-symbol
// failures are logged and counted; they never abort the batch.
func (s *Screener) Scan(ctx context.Context, trigger string) (*Report, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrScanInProgress
	}
	defer s.running.Store(false)

	run := recorder.ScanRun{
		ID:            uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		Trigger:       trigger,
		MinConfidence: s.opts.MinConfidence,
	}
	runLog := s.log.With().Str("run_id", run.ID).Str("trigger", trigger).Logger()

	symbols := s.Watchlist.Symbols()
	run.Symbols = len(symbols)
	runLog.Info().Int("symbols", len(symbols)).Msg("scan started")

	results := make([]*model.AnalysisResult, len(symbols))
	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			res, err := s.AnalyzeSymbol(gctx, symbol)
			if err != nil {
				failed.Add(1)
				runLog.Warn().Err(err).Str("symbol", symbol).Msg("analysis failed")
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}

	var qualified []*model.AnalysisResult
	for _, res := range results {
		if res == nil {
			continue
		}
		run.Analyzed++
		if err := s.Recorder.RecordAnalysis(run.ID, res); err != nil {
			runLog.Error().Err(err).Str("symbol", res.Symbol).Msg("record analysis")
		}
		if res.ConfidenceScore >= s.opts.MinConfidence {
			qualified = append(qualified, res)
		}
	}
	slices.SortStableFunc(qualified, func(a, b *model.AnalysisResult) int {
		if c := cmp.Compare(b.ConfidenceScore, a.ConfidenceScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})

	run.Failed = int(failed.Load())
	run.Qualified = len(qualified)
	run.FinishedAt = time.Now().UTC()
	if err := s.Recorder.RecordScan(&run); err != nil {
		runLog.Error().Err(err).Msg("record scan")
	}

	metrics.ScansTotal.Inc()
	metrics.ScanDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	runLog.Info().Int("analyzed", run.Analyzed).Int("failed", run.Failed).Int("qualified", run.Qualified).
		Dur("took", run.FinishedAt.Sub(run.StartedAt)).Msg("scan finished")

	report := &Report{Run: run, Qualified: qualified}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report, nil
}

// AnalyzeSymbol collects market data for one symbol and runs the engine on it.
func (s *Screener) AnalyzeSymbol(ctx context.Context, symbol string) (*model.AnalysisResult, error) {
	snap, err := s.Collector.Collect(ctx, symbol)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeFetchError).Inc()
		return nil, fmt.Errorf("collect %s: %w", symbol, err)
	}
	res, err := s.Engine.Analyze(symbol, snap.Candles15m, snap.Candles1H, snap.Candles4H, snap.Volume)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, model.ErrInsufficientData) {
			outcome = metrics.OutcomeInsufficient
		}
		metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}
	metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.ConfidenceScore.WithLabelValues(symbol).Set(float64(res.ConfidenceScore))
	return res, nil
}

// Last returns the most recent scan report, or nil before the first scan.
func (s *Screener) Last() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Screener) notify(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, sendRetries); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
