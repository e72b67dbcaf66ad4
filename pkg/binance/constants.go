package binance

import (
	"fmt"
	"time"
)

// KlineInterval is the interval type used for kline requests and streams.
type KlineInterval string

// KlineIntervalMeta holds the API value and nominal duration of an interval.
type KlineIntervalMeta struct {
	APIValue string
	Duration time.Duration
}

const (
	Interval1Min    KlineInterval = "1m"
	Interval3Min    KlineInterval = "3m"
	Interval5Min    KlineInterval = "5m"
	Interval15Min   KlineInterval = "15m"
	Interval30Min   KlineInterval = "30m"
	Interval1Hour   KlineInterval = "1h"
	Interval2Hour   KlineInterval = "2h"
	Interval4Hour   KlineInterval = "4h"
	Interval6Hour   KlineInterval = "6h"
	Interval12Hour  KlineInterval = "12h"
	IntervalDaily   KlineInterval = "1d"
	IntervalWeekly  KlineInterval = "1w"
	IntervalMonthly KlineInterval = "1M"
)

// intervalOrder is the order intervals are listed in help text.
var intervalOrder = []KlineInterval{
	Interval1Min, Interval3Min, Interval5Min, Interval15Min, Interval30Min,
	Interval1Hour, Interval2Hour, Interval4Hour, Interval6Hour, Interval12Hour,
	IntervalDaily, IntervalWeekly, IntervalMonthly,
}

var validKlineIntervals = map[KlineInterval]KlineIntervalMeta{
	Interval1Min:    {APIValue: "1m", Duration: time.Minute},
	Interval3Min:    {APIValue: "3m", Duration: 3 * time.Minute},
	Interval5Min:    {APIValue: "5m", Duration: 5 * time.Minute},
	Interval15Min:   {APIValue: "15m", Duration: 15 * time.Minute},
	Interval30Min:   {APIValue: "30m", Duration: 30 * time.Minute},
	Interval1Hour:   {APIValue: "1h", Duration: time.Hour},
	Interval2Hour:   {APIValue: "2h", Duration: 2 * time.Hour},
	Interval4Hour:   {APIValue: "4h", Duration: 4 * time.Hour},
	Interval6Hour:   {APIValue: "6h", Duration: 6 * time.Hour},
	Interval12Hour:  {APIValue: "12h", Duration: 12 * time.Hour},
	IntervalDaily:   {APIValue: "1d", Duration: 24 * time.Hour},
	IntervalWeekly:  {APIValue: "1w", Duration: 7 * 24 * time.Hour},
	IntervalMonthly: {APIValue: "1M", Duration: 30 * 24 * time.Hour}, // nominal; calendar months vary
}

// IsValid checks if the KlineInterval is a valid predefined interval
func (k KlineInterval) IsValid() bool {
	_, ok := validKlineIntervals[k]
	return ok
}

// ParseInterval parses a string into a valid KlineIntervalMeta
func ParseInterval(s string) (KlineIntervalMeta, error) {
	meta, ok := validKlineIntervals[KlineInterval(s)]
	if !ok {
		return KlineIntervalMeta{}, fmt.Errorf("invalid KlineInterval: %s", s)
	}
	return meta, nil
}

// Intervals lists the accepted interval strings, shortest first.
func Intervals() []string {
	out := make([]string, len(intervalOrder))
	for i, k := range intervalOrder {
		out[i] = string(k)
	}
	return out
}
