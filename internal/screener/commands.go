package screener

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"CoinScreener/internal/notifier"
	"CoinScreener/internal/watchlist"
)

const historyLimit = 10

// HandleCommand processes a chat command and returns the reply.
func (s *Screener) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	// Telegram appends the bot name in groups: /scan@my_bot
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch name {
	case "/scan":
		report, err := s.Scan(ctx, TriggerCommand)
		if errors.Is(err, ErrScanInProgress) {
			return "⏳ A scan is already running."
		}
		if err != nil {
			return "❌ Scan failed: " + html.EscapeString(err.Error())
		}
		return notifier.FormatScanReport(&report.Run, report.Top(s.opts.TopN))
	case "/top":
		report := s.Last()
		if report == nil {
			return "No scan has run yet. Use /scan."
		}
		return notifier.FormatScanReport(&report.Run, report.Top(s.opts.TopN))
	case "/list":
		return notifier.FormatWatchlist(s.Watchlist.Symbols())
	case "/add":
		return s.addSymbol(arg)
	case "/remove":
		return s.removeSymbol(arg)
	case "/analyze":
		symbol, err := watchlist.Normalize(arg)
		if err != nil {
			return "Usage: /analyze SYMBOL"
		}
		res, err := s.AnalyzeSymbol(ctx, symbol)
		if err != nil {
			return "❌ " + html.EscapeString(err.Error())
		}
		return notifier.FormatAnalysis(res)
	case "/history":
		symbol, err := watchlist.Normalize(arg)
		if err != nil {
			return "Usage: /history SYMBOL"
		}
		entries, err := s.Recorder.History(symbol, historyLimit)
		if err != nil {
			s.log.Error().Err(err).Str("symbol", symbol).Msg("load history")
			return "❌ History is unavailable."
		}
		return notifier.FormatHistory(symbol, entries)
	default:
		return notifier.HelpText
	}
}

func (s *Screener) addSymbol(arg string) string {
	symbol, err := watchlist.Normalize(arg)
	if err != nil {
		return "Usage: /add SYMBOL"
	}
	added, err := s.Watchlist.Add(symbol)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("add symbol")
		return fmt.Sprintf("❌ Could not add %s.", symbol)
	}
	if !added {
		return fmt.Sprintf("%s is already on the watchlist.", symbol)
	}
	return fmt.Sprintf("✅ Added %s.", symbol)
}

func (s *Screener) removeSymbol(arg string) string {
	symbol, err := watchlist.Normalize(arg)
	if err != nil {
		return "Usage: /remove SYMBOL"
	}
	removed, err := s.Watchlist.Remove(symbol)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("remove symbol")
		return fmt.Sprintf("❌ Could not remove %s.", symbol)
	}
	if !removed {
		return fmt.Sprintf("%s is not on the watchlist.", symbol)
	}
	return fmt.Sprintf("🗑 Removed %s.", symbol)
}
