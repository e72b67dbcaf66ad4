package binance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const klineBody = `[
 [1700000000000,"1","2","0.5","100.5","10",1700000059999,"0",1,"0","0","0"],
 [1700000060000,"1","2","0.5","101.25","10",1700000119999,"0",1,"0","0","0"],
 [1700000120000,"1","2","0.5","99.0","10",1700000179999,"0",1,"0","0","0"]
]`

func newTestClient(t *testing.T, h http.HandlerFunc, now time.Time) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client := NewRESTClient(srv.URL, 5*time.Second)
	client.now = func() time.Time { return now }
	return client
}

// go test -v --run TestGetKlines
func TestGetKlines(t *testing.T) {
	var gotQuery map[string]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fapi/v1/klines" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{"symbol": q.Get("symbol"), "interval": q.Get("interval"), "limit": q.Get("limit")}
		_, _ = w.Write([]byte(klineBody))
	}, time.UnixMilli(1700000150000))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	samples, err := client.GetKlines(ctx, "btcusdt", "1m", 50)
	if err != nil {
		t.Fatalf("GetKlines returned error: %v", err)
	}

	if gotQuery["symbol"] != "BTCUSDT" || gotQuery["interval"] != "1m" || gotQuery["limit"] != "50" {
		t.Errorf("unexpected query: %v", gotQuery)
	}

	// the third candle closes after "now" and must be dropped
	if len(samples) != 2 {
		t.Fatalf("expected 2 closed candles, got %d: %+v", len(samples), samples)
	}
	if samples[0].Time != 1700000000000 || samples[0].Price != 100.5 {
		t.Errorf("unexpected first sample %+v", samples[0])
	}
	if samples[1].Price != 101.25 {
		t.Errorf("unexpected second sample %+v", samples[1])
	}
}

// go test -v --run TestGetKlinesAPIError
func TestGetKlinesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}, time.Now())

	_, err := client.GetKlines(context.Background(), "NOPE", "1m", 10)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != -1121 {
		t.Errorf("unexpected code %d", apiErr.Code)
	}
}

// go test -v --run TestGetKlinesServerError
func TestGetKlinesServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}, time.Now())

	if _, err := client.GetKlines(context.Background(), "BTCUSDT", "1m", 10); err == nil {
		t.Fatal("expected error for 502")
	}
}

// go test -v --run TestParseKlineRowsSkipsMalformed
func TestParseKlineRowsSkipsMalformed(t *testing.T) {
	raw := `[
	 [1,"1","1","1","5.5","1",2],
	 [3,"1","1","1","not-a-number","1",4],
	 [5,"1"],
	 ["x","1","1","1","6","1",6],
	 [7,"1","1","1","7.5","1",8]
	]`
	var rows [][]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		t.Fatal(err)
	}

	got := ParseKlineRows(rows, time.UnixMilli(100))
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %+v", got)
	}
	if got[0].Price != 5.5 || got[1].Time != 7 {
		t.Errorf("unexpected samples %+v", got)
	}
}
