package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"wschart/internal/alert"
	"wschart/internal/indicator"
	"wschart/internal/memorystore"
	"wschart/internal/metrics"

	"go.uber.org/zap"
)

const (
	clearScreen  = "\033[H\033[2J"
	waitingText  = "Waiting for data..."
	percentWidth = 9 // "%+8.2f%%"
)

// AlertSink receives threshold crossings. It must not block.
type AlertSink interface {
	Dispatch(ev alert.Event)
}

// Options describes what to draw.
type Options struct {
	Symbol   string
	Interval string // empty in tick mode
	Height   int
	Width    int

	Bands      bool
	Period     int
	Multiplier float64

	RefreshInterval time.Duration
	Location        *time.Location // defaults to time.Local
}

// Renderer redraws the chart from the window store on a fixed tick. It is
// the only reader of the store and owns the threshold monitor.
type Renderer struct {
	opts    Options
	store   *memorystore.WindowStore
	out     io.Writer
	logger  *zap.Logger
	monitor *alert.Monitor
	alerts  AlertSink
}

func New(opts Options, store *memorystore.WindowStore, out io.Writer, logger *zap.Logger) *Renderer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 100 * time.Millisecond
	}
	return &Renderer{opts: opts, store: store, out: out, logger: logger}
}

// WithMonitor enables threshold alerts on the latest price.
func (r *Renderer) WithMonitor(m *alert.Monitor, sink AlertSink) *Renderer {
	r.monitor = m
	r.alerts = sink
	return r
}

// Run draws a frame every RefreshInterval until ctx is cancelled.
func (r *Renderer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		if err := r.tick(); err != nil {
			metrics.RenderErrors.Inc()
			r.logger.Error("skipping frame", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick renders one frame. A panic while composing drops the frame only.
func (r *Renderer) tick() (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render panic: %v", rec)
		}
	}()

	view := r.store.MergedView()
	if len(view) > 0 && r.monitor != nil {
		if ev, ok := r.monitor.Observe(view[len(view)-1].Price); ok && r.alerts != nil {
			r.alerts.Dispatch(ev)
		}
	}

	frame := r.Compose(view)
	if _, err := io.WriteString(r.out, clearScreen+frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	metrics.FramesTotal.Inc()
	return nil
}

// Compose builds the frame for view: title, header, Height chart rows and the
// time axis. It has no side effects.
func (r *Renderer) Compose(view []memorystore.Sample) string {
	title := r.title()
	if len(view) == 0 {
		return r.waitingFrame(title)
	}

	prices := memorystore.Prices(view)
	timestamps := memorystore.Times(view)
	last := prices[len(prices)-1]

	var series []Series
	if r.opts.Bands {
		band := indicator.ComputeBand(prices, r.opts.Period, r.opts.Multiplier)
		series = append(series,
			Series{Values: band.Lower, Style: &bandStyle},
			Series{Values: band.Middle, Style: &middleStyle},
			Series{Values: band.Upper, Style: &bandStyle},
		)
	}
	series = append(series, Series{Values: prices})

	lo, hi := ValueRange(series)
	cfg := PlotConfig{Height: r.opts.Height, Width: r.opts.Width, Min: lo, Max: hi}
	gutter := GutterWidth(lo, hi)
	frameWidth := gutter + r.opts.Width + 1 + percentWidth

	lastTime := time.UnixMilli(timestamps[len(timestamps)-1]).In(r.opts.Location)
	lines := make([]string, 0, r.opts.Height+3)
	lines = append(lines,
		padRight(title, frameWidth),
		padRight(header(fmt.Sprintf("%.2f", last), "Last: "+lastTime.Format("15:04:05"), frameWidth), frameWidth),
	)

	rows := Plot(series, cfg)
	pct := PercentColumn(cfg, last)
	for i, row := range rows {
		lines = append(lines, row+" "+pct[i])
	}
	lines = append(lines, padRight(strings.Repeat(" ", gutter)+TimeAxis(timestamps, r.opts.Width, r.opts.Location), frameWidth))

	return strings.Join(lines, "\n") + "\n"
}

// waitingFrame is laid out on the grid of a data frame whose labels read
// "0.00".
func (r *Renderer) waitingFrame(title string) string {
	width := GutterWidth(0, 0) + r.opts.Width + 1 + percentWidth
	lines := make([]string, 0, r.opts.Height+3)
	lines = append(lines, padRight(title, width), padRight(header("N/A", "", width), width))
	for i := 0; i < r.opts.Height; i++ {
		lines = append(lines, strings.Repeat(" ", width))
	}
	lines = append(lines, padRight(waitingText, width))
	return strings.Join(lines, "\n") + "\n"
}

func (r *Renderer) title() string {
	if r.opts.Interval != "" {
		return fmt.Sprintf("%s Candlestick Chart (%s)", r.opts.Symbol, r.opts.Interval)
	}
	return r.opts.Symbol + " Real-Time Stream"
}

// header puts the price on the left and right-aligns right within width.
func header(price, right string, width int) string {
	left := "Binance: " + price
	return left + fmt.Sprintf("%*s", max(width-len(left), 0), right)
}

func padRight(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
