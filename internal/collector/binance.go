package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"CoinScreener/internal/metrics"
	"CoinScreener/internal/model"
)

// DefaultBinanceURL is the public spot REST endpoint.
const DefaultBinanceURL = "https://api.binance.com"

const maxRetries = 3

// BinanceFetcher implements Fetcher using the Binance spot klines endpoint.
type BinanceFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	limiter *rate.Limiter

	newBackOff func() backoff.BackOff
	now        func() time.Time
}

// NewBinanceFetcher creates a new fetcher with optional proxy support.
// requestsPerSecond <= 0 disables client-side throttling.
func NewBinanceFetcher(baseURL, apiKey, proxyURL string, requestsPerSecond float64) *BinanceFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBinanceURL
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &BinanceFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter:    rate.NewLimiter(limit, 1),
		newBackOff: defaultBackOff,
		now:        time.Now,
	}
}

func defaultBackOff() backoff.BackOff { return backoff.NewExponentialBackOff() }

func (f *BinanceFetcher) Name() string { return "binance" }

func (f *BinanceFetcher) FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, limit int) ([]model.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", tf.Interval())
	params.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", f.BaseURL, params.Encode())

	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(f.Name(), tf.Interval()).Observe(time.Since(start).Seconds())
	}()

	var rows [][]json.RawMessage
	op := func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		return f.getJSON(ctx, endpoint, &rows)
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("symbol", symbol).Str("interval", tf.Interval()).
			Dur("retry_in", wait).Msg("klines request failed, retrying")
	}
	b := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), maxRetries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, fmt.Errorf("fetch %s %s klines: %w", symbol, tf.Interval(), err)
	}

	// the exchange returns the still-forming candle last; only closed ones are kept
	nowMs := f.now().UnixMilli()
	candles := make([]model.Candle, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		c, closeTime, err := parseKline(row)
		if err != nil || !c.Valid() {
			dropped++
			continue
		}
		if closeTime > nowMs {
			continue
		}
		candles = append(candles, c)
	}
	if dropped > 0 {
		log.Warn().Str("symbol", symbol).Str("interval", tf.Interval()).Int("dropped", dropped).Msg("dropped malformed klines")
	}
	return normalize(candles), nil
}

func (f *BinanceFetcher) FetchVolumeSeries(ctx context.Context, symbol string, tf model.Timeframe, limit int) (model.VolumeSeries, error) {
	candles, err := f.FetchCandles(ctx, symbol, tf, limit)
	if err != nil {
		return model.VolumeSeries{}, err
	}
	return VolumeFromCandles(symbol, candles, limit), nil
}

// statusError is a non-200 reply. 429 and 5xx are retried, others are not.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.Code, e.Body)
}

func (f *BinanceFetcher) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	if f.APIKey != "" {
		req.Header.Set("X-MBX-APIKEY", f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		serr := &statusError{Code: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return serr
		}
		return backoff.Permanent(serr)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode klines: %w", err))
	}
	return nil
}

var errShortKline = errors.New("kline row has fewer than 7 fields")

// parseKline reads [openTime, open, high, low, close, volume, closeTime, ...].
// Prices and volume arrive as decimal strings.
func parseKline(row []json.RawMessage) (model.Candle, int64, error) {
	var c model.Candle
	var closeTime int64
	if len(row) < 7 {
		return c, 0, errShortKline
	}
	if err := json.Unmarshal(row[0], &c.Time); err != nil {
		return c, 0, fmt.Errorf("open time: %w", err)
	}
	fields := []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume}
	for i, dst := range fields {
		v, err := parseNumber(row[i+1])
		if err != nil {
			return c, 0, err
		}
		*dst = v
	}
	if err := json.Unmarshal(row[6], &closeTime); err != nil {
		return c, 0, fmt.Errorf("close time: %w", err)
	}
	return c, closeTime, nil
}

func parseNumber(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("parse number %s: %w", raw, err)
	}
	return v, nil
}

// normalize sorts by time and drops duplicate timestamps, keeping the later row.
func normalize(candles []model.Candle) []model.Candle {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].Time < candles[j].Time })
	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && out[n-1].Time == c.Time {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}
