package render

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"wschart/internal/alert"
	"wschart/internal/memorystore"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var baseTime = time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC).UnixMilli()

func minuteSamples(prices ...float64) []memorystore.Sample {
	out := make([]memorystore.Sample, len(prices))
	for i, p := range prices {
		out[i] = memorystore.Sample{Time: baseTime + int64(i)*60_000, Price: p}
	}
	return out
}

func testRenderer(opts Options, store *memorystore.WindowStore, out *bytes.Buffer) *Renderer {
	opts.Location = time.UTC
	return New(opts, store, out, zap.NewNop())
}

// go test -v --run TestComposeWaiting
func TestComposeWaiting(t *testing.T) {
	r := testRenderer(Options{Symbol: "BTCUSDT", Height: 2, Width: 20}, memorystore.NewTickStore(20), nil)

	got := r.Compose(nil)
	blank := strings.Repeat(" ", 36)
	want := strings.Join([]string{
		"BTCUSDT Real-Time Stream            ",
		"Binance: N/A                        ",
		blank,
		blank,
		"Waiting for data...                 ",
	}, "\n") + "\n"
	if got != want {
		t.Errorf("unexpected waiting frame:\n%q\nwant\n%q", got, want)
	}

	// the first data frame keeps the placeholder's width
	frame := strings.Split(strings.TrimSuffix(r.Compose(minuteSamples(1, 2, 3)), "\n"), "\n")
	for i, line := range frame {
		if w := lipgloss.Width(line); w != 36 {
			t.Errorf("data line %d is %d columns wide, want 36: %q", i, w, line)
		}
	}
}

// go test -v --run TestComposeFrame
func TestComposeFrame(t *testing.T) {
	r := testRenderer(Options{Symbol: "BTCUSDT", Interval: "1m", Height: 3, Width: 4}, memorystore.NewCandleStore(4), nil)

	lines := strings.Split(strings.TrimSuffix(r.Compose(minuteSamples(1, 2, 3)), "\n"), "\n")
	if len(lines) != 3+3 {
		t.Fatalf("expected %d lines, got %d: %q", 6, len(lines), lines)
	}
	if lines[0] != "BTCUSDT Candlestick Chart (1m)" {
		t.Errorf("unexpected title %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Binance: 3.00") || !strings.HasSuffix(lines[1], "Last: 03:06:00") {
		t.Errorf("unexpected header %q", lines[1])
	}

	wantRows := []string{
		"3.00 ┤ ╭╴     +0.00%",
		"2.00 ┤╭╯     -33.33%",
		"1.00 ┼╯      -66.67%",
	}
	for i, want := range wantRows {
		if lines[2+i] != want {
			t.Errorf("row %d: got %q, want %q", i, lines[2+i], want)
		}
	}

	// axis starts under the plot area
	if !strings.HasPrefix(lines[5], "      03:0") {
		t.Errorf("unexpected axis %q", lines[5])
	}
}

// go test -v --run TestComposeHeaderAlignment
func TestComposeHeaderAlignment(t *testing.T) {
	r := testRenderer(Options{Symbol: "ETHUSDT", Height: 4, Width: 30}, memorystore.NewTickStore(30), nil)

	lines := strings.Split(r.Compose(minuteSamples(10, 12)), "\n")
	// gutter "12.00 ┤" is 7 wide: 7 + 30 + 1 + 9
	const frameWidth = 47
	if n := len([]rune(lines[1])); n != frameWidth {
		t.Errorf("header width %d, want %d: %q", n, frameWidth, lines[1])
	}
	if !strings.HasSuffix(lines[1], "Last: 03:05:00") {
		t.Errorf("time not right-aligned: %q", lines[1])
	}
	for i := 2; i < 2+4; i++ {
		if n := lipgloss.Width(lines[i]); n != frameWidth {
			t.Errorf("row %d width %d, want %d", i, n, frameWidth)
		}
	}
}

// go test -v --run TestComposeWithBands
func TestComposeWithBands(t *testing.T) {
	opts := Options{Symbol: "BTCUSDT", Height: 5, Width: 10, Bands: true, Period: 3, Multiplier: 2}
	r := testRenderer(opts, memorystore.NewTickStore(10), nil)

	frame := r.Compose(minuteSamples(50, 51, 49, 52, 48, 53, 47, 54))
	lines := strings.Split(strings.TrimSuffix(frame, "\n"), "\n")
	if len(lines) != opts.Height+3 {
		t.Fatalf("expected %d lines, got %d", opts.Height+3, len(lines))
	}

	// the bands widen the range beyond the raw prices
	top, err := strconv.ParseFloat(strings.Fields(lines[2])[0], 64)
	if err != nil {
		t.Fatalf("parse top label of %q: %v", lines[2], err)
	}
	if top <= 54 {
		t.Errorf("expected the upper band above the max price, top label %v", top)
	}

	width := lipgloss.Width(lines[2])
	for i := 3; i < 2+opts.Height; i++ {
		if lipgloss.Width(lines[i]) != width {
			t.Errorf("row %d has width %d, want %d", i, lipgloss.Width(lines[i]), width)
		}
	}
}

type sinkFunc func(alert.Event)

func (f sinkFunc) Dispatch(ev alert.Event) { f(ev) }

// go test -v --run TestTickRunsMonitor
func TestTickRunsMonitor(t *testing.T) {
	store := memorystore.NewTickStore(10)
	store.Extend(minuteSamples(105, 99))

	var out bytes.Buffer
	var got []alert.Event
	r := testRenderer(Options{Symbol: "BTCUSDT", Height: 3, Width: 10}, store, &out).
		WithMonitor(alert.NewMonitor(alert.Rule{Symbol: "BTCUSDT", Lower: 100, Upper: 110}),
			sinkFunc(func(ev alert.Event) { got = append(got, ev) }))

	if err := r.tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if err := r.tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}

	if len(got) != 1 || got[0].Kind != alert.BelowTriggered || got[0].Price != 99 {
		t.Errorf("expected one below alert at 99, got %+v", got)
	}
	if !strings.HasPrefix(out.String(), clearScreen) {
		t.Error("frame must start by homing the cursor and clearing")
	}
	if strings.Count(out.String(), clearScreen) != 2 {
		t.Errorf("expected 2 frames, got %d", strings.Count(out.String(), clearScreen))
	}
}

// go test -v --run TestTickRecoversPanic
func TestTickRecoversPanic(t *testing.T) {
	store := memorystore.NewTickStore(10)
	store.AppendClosed(memorystore.Sample{Time: baseTime, Price: 1})

	var out bytes.Buffer
	r := testRenderer(Options{Symbol: "BTCUSDT", Height: 3, Width: 10}, store, &out).
		WithMonitor(alert.NewMonitor(alert.Rule{Symbol: "BTCUSDT", Lower: 5, Upper: 10}),
			sinkFunc(func(alert.Event) { panic("boom") }))

	if err := r.tick(); err == nil {
		t.Fatal("expected the panic to surface as an error")
	}
	if out.Len() != 0 {
		t.Error("a failed tick must not write a frame")
	}

	// next tick is fine: the monitor already fired
	if err := r.tick(); err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

// go test -v --run TestRunKeepsGoingOnErrors
func TestRunKeepsGoingOnErrors(t *testing.T) {
	store := memorystore.NewTickStore(10)
	store.AppendClosed(memorystore.Sample{Time: baseTime, Price: 1})

	r := New(Options{Symbol: "X", Height: 2, Width: 10, RefreshInterval: 5 * time.Millisecond},
		store, errWriter{}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
