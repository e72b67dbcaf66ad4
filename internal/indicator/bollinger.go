// Package indicator computes rolling technical indicators over a price series.
package indicator

import "math"

// Band is a Bollinger band: three series parallel to the input prices.
// Positions the band cannot be computed for hold NaN.
type Band struct {
	Lower  []float64
	Middle []float64
	Upper  []float64
}

// Undefined is the value stored where a band position has no value.
func Undefined() float64 { return math.NaN() }

// IsUndefined reports whether v marks a missing band value.
func IsUndefined(v float64) bool { return math.IsNaN(v) }

// ComputeBand returns the moving average of each trailing window of period
// prices, plus and minus multiplier sample standard deviations.
//
// Index i < period-1 is undefined. A series shorter than period, or a period
// under 2 (sample deviation needs two points), is undefined everywhere. The
// whole band is recomputed on every call.
func ComputeBand(prices []float64, period int, multiplier float64) Band {
	n := len(prices)
	band := Band{
		Lower:  undefinedSeries(n),
		Middle: undefinedSeries(n),
		Upper:  undefinedSeries(n),
	}
	if period < 2 || n < period {
		return band
	}

	for i := period - 1; i < n; i++ {
		window := prices[i-period+1 : i+1]
		mean, std := meanStdDev(window)
		band.Middle[i] = mean
		band.Upper[i] = mean + multiplier*std
		band.Lower[i] = mean - multiplier*std
	}
	return band
}

// meanStdDev returns the mean and the sample standard deviation of window.
// Values are shifted by the first element before summing, so a constant
// window yields exactly that constant and zero deviation.
func meanStdDev(window []float64) (mean, std float64) {
	k := window[0]
	var sum float64
	for _, p := range window {
		sum += p - k
	}
	mean = k + sum/float64(len(window))

	var sq float64
	for _, p := range window {
		d := p - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(window)-1))
}

func undefinedSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = Undefined()
	}
	return s
}
