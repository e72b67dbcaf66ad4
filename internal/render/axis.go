package render

import (
	"fmt"
	"strings"
	"time"
)

const (
	axisFirstLayout = "01-02 15:04"
	axisMidLayout   = "15:04"
)

// TimeAxis labels a plot area of width columns: the first timestamp in full at
// column 0 and the time of the middle sample centred. Where the labels
// overlap the centred one wins.
func TimeAxis(timestamps []int64, width int, loc *time.Location) string {
	if width <= 0 {
		return ""
	}
	axis := []rune(strings.Repeat(" ", width))
	if len(timestamps) == 0 {
		return string(axis)
	}

	put := func(pos int, label string) {
		for i, c := range []rune(label) {
			if p := pos + i; p >= 0 && p < width {
				axis[p] = c
			}
		}
	}

	first := time.UnixMilli(timestamps[0]).In(loc).Format(axisFirstLayout)
	put(0, first)

	mid := time.UnixMilli(timestamps[len(timestamps)/2]).In(loc).Format(axisMidLayout)
	put(width/2-len(mid)/2, mid)

	return string(axis)
}

// PercentColumn returns, per row, the deviation of the row's price level
// from last, formatted as "%+8.2f%%". Rows read 0 when the range is flat or
// last is not positive.
func PercentColumn(cfg PlotConfig, last float64) []string {
	out := make([]string, cfg.Height)
	for r := range out {
		pct := 0.0
		if cfg.Max-cfg.Min > 0 && last > 0 {
			pct = (RowLevel(cfg, r)/last - 1) * 100
		}
		out[r] = fmt.Sprintf("%+8.2f%%", pct)
	}
	return out
}
