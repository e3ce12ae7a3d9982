package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"CoinScreener/internal/model"
)

const klinesBody = `[
 [1700003600000,"101.0","103.0","100.5","102.0","12.5",1700007199999,"0",10,"0","0","0"],
 [1700000000000,"100.0","102.0","99.0","101.0","10.0",1700003599999,"0",10,"0","0","0"],
 [1700007200000,"102.0","101.0","103.0","102.5","9.0",1700010799999,"0",10,"0","0","0"],
 [1700010800000,"102.0","104.0","101.5","103.5","11.0",1700014399999,"0",10,"0","0","0"]
]`

func newTestFetcher(url string) *BinanceFetcher {
	f := NewBinanceFetcher(url, "key", "", 0)
	f.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return f
}

func TestBinanceFetcher_FetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "1h" || q.Get("limit") != "4" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("X-MBX-APIKEY") != "key" {
			t.Error("expected API key header")
		}
		fmt.Fprint(w, klinesBody)
	}))
	defer srv.Close()

	candles, err := newTestFetcher(srv.URL).FetchCandles(context.Background(), "BTCUSDT", model.H1, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the third row has high < low and is dropped
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	if err := model.ValidateSeries(candles); err != nil {
		t.Errorf("expected a clean series: %v", err)
	}
	if candles[0].Time != 1700000000000 || candles[0].Close != 101 {
		t.Errorf("expected oldest candle first, got %+v", candles[0])
	}
	if candles[2].Volume != 11 {
		t.Errorf("expected volume 11 on the newest candle, got %v", candles[2].Volume)
	}
}

func TestBinanceFetcher_DropsFormingCandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, klinesBody)
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL)
	// inside the last 1h bucket, which closes at 1700014399999
	f.now = func() time.Time { return time.UnixMilli(1700012000000) }
	candles, err := f.FetchCandles(context.Background(), "BTCUSDT", model.H1, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 closed candles, got %d", len(candles))
	}
	if last := candles[len(candles)-1]; last.Time != 1700003600000 {
		t.Errorf("expected the last closed candle to open at 1700003600000, got %d", last.Time)
	}
}

func TestBinanceFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, klinesBody)
	}))
	defer srv.Close()

	candles, err := newTestFetcher(srv.URL).FetchCandles(context.Background(), "BTCUSDT", model.M15, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
	if len(candles) != 3 {
		t.Errorf("expected 3 candles, got %d", len(candles))
	}
}

func TestBinanceFetcher_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":-1121,"msg":"Invalid symbol."}`)
	}))
	defer srv.Close()

	_, err := newTestFetcher(srv.URL).FetchCandles(context.Background(), "NOPE", model.H4, 10)
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single call, got %d", calls.Load())
	}
	var serr *statusError
	if !errors.As(err, &serr) || serr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid symbol") {
		t.Errorf("expected body in error, got %v", err)
	}
}

func TestBinanceFetcher_FetchVolumeSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, klinesBody)
	}))
	defer srv.Close()

	vs, err := newTestFetcher(srv.URL).FetchVolumeSeries(context.Background(), "BTCUSDT", model.H1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vs.Values) != 2 || len(vs.Times) != 2 {
		t.Fatalf("expected 2 parallel values, got %d/%d", len(vs.Values), len(vs.Times))
	}
	if vs.Values[1] != 11 || vs.Times[1] != 1700010800000 {
		t.Errorf("unexpected newest sample %v@%d", vs.Values[1], vs.Times[1])
	}
}

func TestResample(t *testing.T) {
	const hour = int64(3_600_000)
	in := []model.Candle{
		{Time: 0, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1},
		{Time: hour, Open: 10.5, High: 13, Low: 10, Close: 12, Volume: 2},
		{Time: 2 * hour, Open: 12, High: 12.5, Low: 8, Close: 9, Volume: 3},
		{Time: 4 * hour, Open: 9, High: 10, Low: 8.5, Close: 9.5, Volume: 4},
	}
	out := Resample(in, 4*hour)
	if len(out) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(out))
	}
	want := model.Candle{Time: 0, Open: 10, High: 13, Low: 8, Close: 9, Volume: 6}
	if out[0] != want {
		t.Errorf("expected %+v, got %+v", want, out[0])
	}
	if out[1].Time != 4*hour || out[1].Volume != 4 {
		t.Errorf("unexpected second bucket %+v", out[1])
	}
	if Resample(nil, hour) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestMockFetcher(t *testing.T) {
	m := &MockFetcher{Base: 50}
	for _, tf := range model.Timeframes {
		candles, err := m.FetchCandles(context.Background(), "BTCUSDT", tf, 120)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tf, err)
		}
		if len(candles) != 120 {
			t.Errorf("%s: expected 120 candles, got %d", tf, len(candles))
		}
		if err := model.ValidateSeries(candles); err != nil {
			t.Errorf("%s: invalid series: %v", tf, err)
		}
		if step := candles[1].Time - candles[0].Time; step != tf.Millis() {
			t.Errorf("%s: expected spacing %d, got %d", tf, tf.Millis(), step)
		}
	}
}

func TestMockFetcher_TimeframesAgree(t *testing.T) {
	m := &MockFetcher{}
	ctx := context.Background()
	last := map[model.Timeframe]model.Candle{}
	for _, tf := range model.Timeframes {
		candles, err := m.FetchCandles(ctx, "BTCUSDT", tf, 250)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tf, err)
		}
		last[tf] = candles[len(candles)-1]
	}
	for _, tf := range []model.Timeframe{model.H1, model.H4} {
		if last[tf].Close != last[model.M15].Close {
			t.Errorf("%s last close %v, 15m last close %v", tf, last[tf].Close, last[model.M15].Close)
		}
		if end, want := last[tf].Time+tf.Millis(), last[model.M15].Time+model.M15.Millis(); end != want {
			t.Errorf("%s last bucket ends at %d, want %d", tf, end, want)
		}
	}

	// a shorter window is the tail of a longer one
	short, _ := m.FetchCandles(ctx, "BTCUSDT", model.H1, 20)
	long, _ := m.FetchCandles(ctx, "BTCUSDT", model.H1, 250)
	for i := range short {
		if short[i] != long[len(long)-len(short)+i] {
			t.Fatalf("1h candle %d differs between windows: %+v vs %+v", i, short[i], long[len(long)-len(short)+i])
		}
	}

	vol, err := m.FetchVolumeSeries(ctx, "BTCUSDT", model.H1, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := vol.Values[len(vol.Values)-1], last[model.H1].Volume; got != want {
		t.Errorf("volume series ends at %v, 1h candle volume %v", got, want)
	}
	if vol.Times[len(vol.Times)-1] != last[model.H1].Time {
		t.Errorf("volume series time %d, 1h candle time %d", vol.Times[len(vol.Times)-1], last[model.H1].Time)
	}
}

func TestCollector_Collect(t *testing.T) {
	c := NewCollector(&MockFetcher{}, 0, 0)
	snap, err := c.Collect(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Candles15m) != DefaultCandleLimit || len(snap.Candles1H) != DefaultCandleLimit || len(snap.Candles4H) != DefaultCandleLimit {
		t.Errorf("unexpected series lengths %d/%d/%d", len(snap.Candles15m), len(snap.Candles1H), len(snap.Candles4H))
	}
	if len(snap.Volume.Values) != DefaultVolumeLimit {
		t.Errorf("expected %d volume values, got %d", DefaultVolumeLimit, len(snap.Volume.Values))
	}
	if snap.Symbol != "ETHUSDT" || snap.Volume.Symbol != "ETHUSDT" {
		t.Errorf("symbol not propagated: %q/%q", snap.Symbol, snap.Volume.Symbol)
	}
}

func TestCollector_CollectError(t *testing.T) {
	boom := errors.New("exchange down")
	_, err := NewCollector(&MockFetcher{Err: boom}, 10, 5).Collect(context.Background(), "ETHUSDT")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
}
