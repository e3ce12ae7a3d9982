package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"CoinScreener/internal/model"
	"CoinScreener/internal/recorder"
)

// FormatPrice renders a price with precision scaled to its magnitude, so that
// sub-cent tokens keep their significant digits.
func FormatPrice(v float64) string {
	d := decimal.NewFromFloat(v)
	abs := d.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1000)):
		return d.StringFixed(2)
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return d.StringFixed(4)
	default:
		return d.Round(8).String()
	}
}

func formatDistance(pct float64) string {
	if pct == model.Unavailable {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

func check(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func trendIcon(t model.TrendDirection) string {
	switch t {
	case model.Uptrend:
		return "📈"
	case model.Downtrend:
		return "📉"
	default:
		return "➡️"
	}
}

// FormatScanReport formats the qualified results of one scan run.
func FormatScanReport(run *recorder.ScanRun, top []*model.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔎 <b>CoinScreener scan</b> | %s UTC\n", run.FinishedAt.UTC().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Analyzed %d/%d symbols, %d failed, %d at ≥%d confidence\n\n",
		run.Analyzed, run.Symbols, run.Failed, run.Qualified, run.MinConfidence))

	if len(top) == 0 {
		b.WriteString("No setups met the confidence threshold.")
		return b.String()
	}
	for i, res := range top {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s score <b>%d</b>\n",
			i+1, html.EscapeString(res.Symbol), trendIcon(res.Trend.TrendDirection), res.ConfidenceScore))
		b.WriteString(fmt.Sprintf("   price %s | SL %s | TP %s | R:R %.2f\n",
			FormatPrice(res.Price), FormatPrice(res.Risk.StopLoss.Primary),
			FormatPrice(res.Risk.TakeProfit.Primary), res.Risk.RiskRewardRatio))
		if len(res.Signals) > 0 {
			b.WriteString("   signals: " + formatSignals(res.Signals) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSignals(signals []model.PriceActionSignal) string {
	parts := make([]string, len(signals))
	for i, s := range signals {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

// FormatAnalysis formats a full single-symbol breakdown.
func FormatAnalysis(res *model.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | score <b>%d</b>/100\n", html.EscapeString(res.Symbol), res.ConfidenceScore))
	b.WriteString(fmt.Sprintf("Price: %s\n\n", FormatPrice(res.Price)))

	t := res.Trend
	b.WriteString(fmt.Sprintf("%s <b>Trend:</b> %s\n", trendIcon(t.TrendDirection), t.TrendDirection))
	b.WriteString(fmt.Sprintf("  EMA stack %s | golden cross 15m %s 1h %s 4h %s\n",
		check(t.EmaAlignment.AllAligned), check(t.GoldenCross15m), check(t.GoldenCross1H), check(t.GoldenCross4H)))

	p := res.Pullback
	b.WriteString(fmt.Sprintf("🎯 <b>Pullback:</b> %s\n", check(p.InPullbackZone)))
	b.WriteString(fmt.Sprintf("  EMA20 %s | EMA50 %s | EMA100 %s\n",
		formatDistance(p.EmaProximity.ToEma20), formatDistance(p.EmaProximity.ToEma50), formatDistance(p.EmaProximity.ToEma100)))
	b.WriteString(fmt.Sprintf("  Fib 0.382 %s | 0.5 %s | 0.618 %s\n",
		formatDistance(p.FibRetracement.To0382), formatDistance(p.FibRetracement.To05), formatDistance(p.FibRetracement.To0618)))

	m := res.Momentum
	b.WriteString(fmt.Sprintf("⚡ <b>Momentum:</b> %s\n", check(m.MomentumConfirmation)))
	b.WriteString(fmt.Sprintf("  RSI 15m %.1f | 1h %.1f\n", m.RsiConditions.Rsi15m, m.RsiConditions.Rsi1H))
	b.WriteString(fmt.Sprintf("  MACD %.6g / signal %.6g / hist %.6g\n",
		m.MacdConditions.MacdLine, m.MacdConditions.SignalLine, m.MacdConditions.Histogram))

	v := res.Volume
	b.WriteString(fmt.Sprintf("📦 <b>Volume:</b> %s (%.0f vs avg %.0f)\n", check(v.VolumeConfirmation), v.CurrentVolume, v.AverageVolume))

	if len(res.Signals) > 0 {
		b.WriteString(fmt.Sprintf("🕯 <b>Signals:</b> %s\n", formatSignals(res.Signals)))
	}

	r := res.Risk
	b.WriteString("\n🛡 <b>Risk</b>\n")
	b.WriteString(fmt.Sprintf("  SL %s / %s / %s / %s\n",
		FormatPrice(r.StopLoss.Primary), FormatPrice(r.StopLoss.Secondary),
		FormatPrice(r.StopLoss.Aggressive), FormatPrice(r.StopLoss.Conservative)))
	b.WriteString(fmt.Sprintf("  TP %s / %s / %s / %s\n",
		FormatPrice(r.TakeProfit.Primary), FormatPrice(r.TakeProfit.Secondary),
		FormatPrice(r.TakeProfit.Aggressive), FormatPrice(r.TakeProfit.Conservative)))
	b.WriteString(fmt.Sprintf("  R:R %.2f | ATR %s | volatility %.2f%%", r.RiskRewardRatio, FormatPrice(r.ATR), r.Volatility*100))
	return b.String()
}

// FormatWatchlist lists the tracked symbols.
func FormatWatchlist(symbols []string) string {
	if len(symbols) == 0 {
		return "📋 Watchlist is empty. Use /add SYMBOL."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Watchlist</b> (%d)\n", len(symbols)))
	for _, s := range symbols {
		b.WriteString("  • " + html.EscapeString(s) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHistory renders stored analyses of one symbol, newest first.
func FormatHistory(symbol string, entries []recorder.HistoryEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("No history for %s yet.", html.EscapeString(symbol))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 <b>%s history</b>\n", html.EscapeString(symbol)))
	for _, e := range entries {
		ts := time.UnixMilli(e.Timestamp).UTC().Format("01-02 15:04")
		b.WriteString(fmt.Sprintf("  %s  %3d  %s  %s  R:R %.2f\n",
			ts, e.ConfidenceScore, trendIcon(e.TrendDirection), FormatPrice(e.Price), e.RiskRewardRatio))
	}
	return strings.TrimRight(b.String(), "\n")
}

// HelpText lists the bot commands.
const HelpText = `🤖 <b>CoinScreener commands</b>
/scan - run a scan now
/top - best setups from the last scan
/analyze SYMBOL - full breakdown of one symbol
/list - show the watchlist
/add SYMBOL - track a symbol
/remove SYMBOL - stop tracking a symbol
/history SYMBOL - recent scores of a symbol`
