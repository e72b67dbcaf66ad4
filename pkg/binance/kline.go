package binance

import (
	"encoding/json"
	"strconv"
	"time"

	"wschart/internal/memorystore"
)

// ParseKlineRows converts REST kline rows
// [openTime, open, high, low, close, volume, closeTime, ...] into samples of
// (openTime, close). Malformed rows are skipped, as is any bucket that has not
// closed by now (the REST API includes the candle still forming).
func ParseKlineRows(rows [][]json.RawMessage, now time.Time) []memorystore.Sample {
	out := make([]memorystore.Sample, 0, len(rows))
	nowMs := now.UnixMilli()

	for _, row := range rows {
		if len(row) < 7 {
			continue // skip incomplete row
		}

		var openTime, closeTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			continue
		}
		if err := json.Unmarshal(row[6], &closeTime); err != nil {
			continue
		}
		var closeStr string
		if err := json.Unmarshal(row[4], &closeStr); err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			continue
		}
		if closeTime >= nowMs {
			continue // still open
		}

		out = append(out, memorystore.Sample{Time: openTime, Price: closePrice})
	}
	return out
}
