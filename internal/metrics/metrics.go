package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "screener_scans_total",
			Help: "Total number of completed screening runs",
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screener_scan_duration_seconds",
			Help:    "Wall time of one screening run",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screener_analyses_total",
			Help: "Per-symbol analyses by outcome",
		},
		[]string{"outcome"},
	)

	ConfidenceScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "screener_confidence_score",
			Help: "Latest confidence score per symbol",
		},
		[]string{"symbol"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "collector_fetch_duration_seconds",
			Help: "Market data request duration",
		},
		[]string{"source", "interval"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_messages_total",
			Help: "Telegram messages by result",
		},
		[]string{"result"},
	)
)

// Analysis outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeInsufficient = "insufficient_data"
	OutcomeFetchError   = "fetch_error"
	OutcomeError        = "error"
)
