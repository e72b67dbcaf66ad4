package memorystore

// Sample is a single price observation.
type Sample struct {
	Time  int64   `json:"time"`  // Observation time (in milliseconds since epoch); candle open time for klines
	Price float64 `json:"price"` // Trade price, or close price for klines
}

// Prices extracts the price column of samples.
func Prices(samples []Sample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.Price
	}
	return out
}

// Times extracts the timestamp column of samples.
func Times(samples []Sample) []int64 {
	out := make([]int64, len(samples))
	for i, s := range samples {
		out[i] = s.Time
	}
	return out
}
