package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Line-drawing symbols.
const (
	symAxis      = '┤'
	symAxisStart = '┼'
	symFlat      = '─'
	symUpEnd     = '╭' // arriving from below, leaving right
	symUpStart   = '╯' // arriving from left, leaving up
	symDownStart = '╮' // arriving from left, leaving down
	symDownEnd   = '╰' // arriving from above, leaving right
	symVertical  = '│'
	symGapEnd    = '╴' // last point before a gap
	symGapStart  = '╶' // first point after a gap
)

var (
	bandStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("4")) // blue
	middleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
)

// Series is one line of the chart. NaN values leave a gap.
type Series struct {
	Values []float64
	Style  *lipgloss.Style // nil draws in the terminal's default colour
}

// PlotConfig fixes the grid the series are drawn into.
type PlotConfig struct {
	Height int     // rows
	Width  int     // plot-area columns, one per sample
	Min    float64 // value at the bottom row
	Max    float64 // value at the top row
}

// LabelWidth is the width of the y-axis labels, wide enough for both ends of
// the range.
func LabelWidth(lo, hi float64) int {
	return max(len(fmt.Sprintf("%.2f", lo)), len(fmt.Sprintf("%.2f", hi)))
}

// GutterWidth is the number of columns in front of the plot area: the label,
// a space and the axis tick.
func GutterWidth(lo, hi float64) int {
	return LabelWidth(lo, hi) + 2
}

// RowLevel is the value represented by row r (0 = top).
func RowLevel(cfg PlotConfig, r int) float64 {
	if cfg.Height < 2 {
		return cfg.Max
	}
	return cfg.Max - float64(r)*(cfg.Max-cfg.Min)/float64(cfg.Height-1)
}

type cell struct {
	ch     rune
	series int // -1 when empty
}

type grid struct {
	cfg   PlotConfig
	cells [][]cell
	ticks []rune
}

func newGrid(cfg PlotConfig) *grid {
	g := &grid{cfg: cfg, cells: make([][]cell, cfg.Height), ticks: make([]rune, cfg.Height)}
	for r := range g.cells {
		g.cells[r] = make([]cell, cfg.Width)
		for c := range g.cells[r] {
			g.cells[r][c] = cell{ch: ' ', series: -1}
		}
		g.ticks[r] = symAxis
	}
	return g
}

// row maps a value to its row; a flat range draws on the middle row.
func (g *grid) row(v float64) int {
	rng := g.cfg.Max - g.cfg.Min
	if rng <= 0 || g.cfg.Height < 2 {
		return (g.cfg.Height - 1) / 2
	}
	r := int(math.Round((g.cfg.Max - v) * float64(g.cfg.Height-1) / rng))
	return min(max(r, 0), g.cfg.Height-1)
}

func (g *grid) set(r, c int, ch rune, series int) {
	if c < 0 || c >= g.cfg.Width {
		return
	}
	g.cells[r][c] = cell{ch: ch, series: series}
}

// draw plots one series. Segment x joins values[x] and values[x+1] in column
// x, and the final point closes the line in its own column.
func (g *grid) draw(idx int, values []float64) {
	if len(values) > g.cfg.Width {
		values = values[len(values)-g.cfg.Width:]
	}
	if len(values) == 0 {
		return
	}
	if isFinite(values[0]) {
		g.ticks[g.row(values[0])] = symAxisStart
	}

	for x := 0; x+1 < len(values); x++ {
		d0, d1 := values[x], values[x+1]
		switch {
		case !isFinite(d0) && !isFinite(d1):
			continue
		case !isFinite(d0):
			g.set(g.row(d1), x, symGapStart, idx)
			continue
		case !isFinite(d1):
			g.set(g.row(d0), x, symGapEnd, idx)
			continue
		}

		y0, y1 := g.row(d0), g.row(d1)
		if y0 == y1 {
			g.set(y0, x, symFlat, idx)
			continue
		}
		if y1 < y0 { // rising
			g.set(y0, x, symUpStart, idx)
			g.set(y1, x, symUpEnd, idx)
		} else {
			g.set(y0, x, symDownStart, idx)
			g.set(y1, x, symDownEnd, idx)
		}
		for r := min(y0, y1) + 1; r < max(y0, y1); r++ {
			g.set(r, x, symVertical, idx)
		}
	}

	last := len(values) - 1
	if isFinite(values[last]) {
		g.set(g.row(values[last]), last, symGapEnd, idx)
	}
}

// Plot draws series into cfg.Height rows, each a gutter followed by
// cfg.Width plot columns. Later series are drawn over earlier ones.
func Plot(series []Series, cfg PlotConfig) []string {
	if cfg.Height < 1 || cfg.Width < 1 {
		return nil
	}
	g := newGrid(cfg)
	for i, s := range series {
		g.draw(i, s.Values)
	}

	labelWidth := LabelWidth(cfg.Min, cfg.Max)
	lines := make([]string, cfg.Height)
	for r := range lines {
		var b strings.Builder
		fmt.Fprintf(&b, "%*.2f %c", labelWidth, RowLevel(cfg, r), g.ticks[r])
		writeCells(&b, g.cells[r], series)
		lines[r] = b.String()
	}
	return lines
}

// writeCells renders a row, colouring runs of cells that belong to the same
// series.
func writeCells(b *strings.Builder, cells []cell, series []Series) {
	for start := 0; start < len(cells); {
		end := start + 1
		for end < len(cells) && cells[end].series == cells[start].series {
			end++
		}

		run := make([]rune, 0, end-start)
		for _, c := range cells[start:end] {
			run = append(run, c.ch)
		}
		text := string(run)
		if idx := cells[start].series; idx >= 0 && series[idx].Style != nil {
			text = series[idx].Style.Render(text)
		}
		b.WriteString(text)
		start = end
	}
}

// ValueRange returns the min and max over every finite value, or 0, 0 when
// there are none.
func ValueRange(series []Series) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			if !isFinite(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return 0, 0
	}
	return lo, hi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
